package exchange

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/jpillora/backoff"
	"github.com/skalibog/galilei/pkg/logger"
	"github.com/skalibog/galilei/pkg/models"
	"go.uber.org/zap"
)

// Число подряд неудачных переподключений, после которого поток
// считается деградировавшим и это попадает в следующее уведомление
const degradedAfterAttempts = 5

// Сколько соединение должно продержаться, чтобы серия неудач считалась
// прерванной. Биржа может принимать сокет и тут же его закрывать:
// такие короткоживущие соединения идут в счет неудач, иначе
// переподключение выродится в горячий цикл без пауз
const streamStableAfter = 30 * time.Second

// reconnectState учет серии неудачных подключений потока
type reconnectState struct {
	b        *backoff.Backoff
	attempts int
}

func newReconnectState() *reconnectState {
	return &reconnectState{
		b: &backoff.Backoff{
			Min:    time.Second,
			Max:    time.Minute,
			Factor: 2,
			Jitter: true,
		},
	}
}

// onFailure регистрирует неудачу и возвращает паузу перед следующей попыткой
func (r *reconnectState) onFailure() time.Duration {
	r.attempts++
	return r.b.Duration()
}

// onDisconnect учитывает время жизни оборвавшегося соединения.
// Стабильное соединение обнуляет серию; короткоживущее продолжает ее
func (r *reconnectState) onDisconnect(uptime time.Duration) (time.Duration, bool) {
	if uptime >= streamStableAfter {
		r.attempts = 0
		r.b.Reset()
		return 0, true
	}
	return r.onFailure(), false
}

func (r *reconnectState) exhausted() bool {
	return r.attempts >= degradedAfterAttempts
}

// TradeStream постоянная подписка на поток сделок (aggTrade) по набору символов.
// При разрыве соединения переподключается с экспоненциальной паузой и
// переподписывается на тот же набор символов. Доставка at-least-once:
// короткий разрыв или дубль при переподключении допустимы, CVD это
// приближенный сигнал потока, а не аудируемый журнал.
type TradeStream struct {
	symbols  []string
	out      chan models.Trade
	degraded atomic.Bool
	dropped  atomic.Int64
}

// NewTradeStream создает поток сделок с ограниченным буфером
func NewTradeStream(symbols []string, buffer int) *TradeStream {
	if buffer <= 0 {
		buffer = 4096
	}
	return &TradeStream{
		symbols: symbols,
		out:     make(chan models.Trade, buffer),
	}
}

// Trades канал сделок. Единственный потребитель сериализует все мутации CVD
func (s *TradeStream) Trades() <-chan models.Trade {
	return s.out
}

// Degraded признак длительной недоступности потока
func (s *TradeStream) Degraded() bool {
	return s.degraded.Load()
}

// Run держит подписку до отмены контекста
func (s *TradeStream) Run(ctx context.Context) error {
	if len(s.symbols) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	r := newReconnectState()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		doneC, stopC, err := futures.WsCombinedAggTradeServe(s.symbols, s.handleEvent, func(err error) {
			logger.Warn("Ошибка потока сделок", zap.Error(err))
		})
		if err != nil {
			d := r.onFailure()
			s.markDegraded(r)
			logger.Warn("Не удалось подключить поток сделок",
				zap.Error(err), zap.Duration("retry_in", d))
			select {
			case <-time.After(d):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		logger.Info("Поток сделок подключен", zap.Strings("symbols", s.symbols))
		connectedAt := time.Now()
		// Флаг деградации снимается не по факту подключения, а после
		// того как соединение продержалось
		stable := time.AfterFunc(streamStableAfter, func() {
			s.degraded.Store(false)
		})

		select {
		case <-ctx.Done():
			stable.Stop()
			close(stopC)
			<-doneC
			return ctx.Err()
		case <-doneC:
		}
		stable.Stop()

		d, wasStable := r.onDisconnect(time.Since(connectedAt))
		if wasStable {
			logger.Warn("Поток сделок отключился, переподключение")
			continue
		}

		s.markDegraded(r)
		logger.Warn("Поток сделок оборвался сразу после подключения",
			zap.Int("attempts", r.attempts), zap.Duration("retry_in", d))
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// markDegraded поднимает флаг деградации, когда серия неудач исчерпала лимит
func (s *TradeStream) markDegraded(r *reconnectState) {
	if r.exhausted() && !s.degraded.Load() {
		s.degraded.Store(true)
		logger.Error("Поток сделок деградировал, CVD может отставать",
			zap.Int("attempts", r.attempts))
	}
}

// handleEvent переводит событие aggTrade в нормализованную сделку
func (s *TradeStream) handleEvent(event *futures.WsAggTradeEvent) {
	price, err := strconv.ParseFloat(event.Price, 64)
	if err != nil {
		logger.Warn("Некорректная цена в потоке сделок", zap.String("price", event.Price))
		return
	}
	qty, err := strconv.ParseFloat(event.Quantity, 64)
	if err != nil {
		logger.Warn("Некорректный объем в потоке сделок", zap.String("quantity", event.Quantity))
		return
	}

	// Maker=true: покупатель был мейкером, агрессор продавал
	side := models.Buy
	if event.Maker {
		side = models.Sell
	}

	trade := models.Trade{
		Symbol:   event.Symbol,
		Price:    price,
		Quantity: qty,
		Side:     side,
		Time:     time.UnixMilli(event.TradeTime),
	}

	select {
	case s.out <- trade:
	default:
		// Буфер полон: потребитель не успевает, сделку теряем
		if n := s.dropped.Add(1); n%1000 == 1 {
			logger.Warn("Переполнен буфер потока сделок", zap.Int64("dropped_total", n))
		}
	}
}
