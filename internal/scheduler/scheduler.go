// Package scheduler управляет конвейером оценки: по календарным границам
// таймфрейма забирает свежие данные, обновляет состояние потока, вызывает
// стратегию и отправляет одно батч-уведомление за цикл. Ошибка по одному
// символу не прерывает цикл для остальных.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jpillora/backoff"
	"github.com/skalibog/galilei/internal/config"
	"github.com/skalibog/galilei/internal/exchange"
	"github.com/skalibog/galilei/internal/flowstate"
	"github.com/skalibog/galilei/internal/notify"
	"github.com/skalibog/galilei/internal/storage"
	"github.com/skalibog/galilei/internal/strategy"
	"github.com/skalibog/galilei/pkg/logger"
	"github.com/skalibog/galilei/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Фазы цикла оценки
const (
	PhaseIdle      = "idle"
	PhaseFetching  = "fetching"
	PhaseComputing = "computing"
	PhaseNotifying = "notifying"
)

// Предел одновременных запросов к источнику в фазе выборки
const fetchConcurrency = 4

// Сколько раз пробовать выборку по символу при восстановимых ошибках,
// прежде чем пропустить его в текущем цикле
const fetchAttempts = 3

// MarketData источник рыночных данных цикла оценки
type MarketData interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*models.Candle, error)
	GetOpenInterest(ctx context.Context, symbol string) (float64, error)
}

// DegradedFunc признак деградации потока сделок
type DegradedFunc func() bool

// Scheduler оркестратор конвейера оценки
type Scheduler struct {
	cfg        *config.Config
	client     MarketData
	store      *flowstate.Store
	checkpoint *flowstate.Checkpoint
	strat      strategy.Strategy
	notifier   notify.Notifier
	sink       storage.Storage
	degraded   DegradedFunc

	phase   atomic.Value
	running atomic.Bool
}

// New создает оркестратор. checkpoint и degraded могут быть nil
func New(cfg *config.Config, client MarketData, store *flowstate.Store,
	checkpoint *flowstate.Checkpoint, strat strategy.Strategy,
	notifier notify.Notifier, sink storage.Storage, degraded DegradedFunc) *Scheduler {

	s := &Scheduler{
		cfg:        cfg,
		client:     client,
		store:      store,
		checkpoint: checkpoint,
		strat:      strat,
		notifier:   notifier,
		sink:       sink,
		degraded:   degraded,
	}
	s.phase.Store(PhaseIdle)
	return s
}

// Phase текущая фаза цикла
func (s *Scheduler) Phase() string {
	return s.phase.Load().(string)
}

// alignNext ближайшая граница сетки таймфрейма строго после from.
// Таймер считается заново на каждой итерации, а не тикает фиксированным
// периодом: так сохраняется привязка «по часам» (минуты 0/15/30/45 и т.п.)
func alignNext(from time.Time, step time.Duration) time.Time {
	return from.Truncate(step).Add(step)
}

// Run выполняет цикл при старте, затем по границам таймфрейма до отмены
func (s *Scheduler) Run(ctx context.Context) error {
	step := models.IntervalDuration(s.cfg.Trading.Interval)

	// Одноразовый прогон на старте, чтобы не молчать до первой границы
	if err := s.RunCycle(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error("Ошибка стартового цикла", zap.Error(err))
	}

	for {
		next := alignNext(time.Now(), step)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Ошибка цикла оценки", zap.Error(err))
		}
	}
}

type fetched struct {
	candles []*models.Candle
	oi      float64
	err     error
}

// retryable true для классов ошибок, по которым имеет смысл повтор
func retryable(err error) bool {
	return errors.Is(err, exchange.ErrRateLimited) || errors.Is(err, exchange.ErrTransient)
}

// fetchSymbol забирает свечи и OI одного символа. Восстановимые ошибки
// повторяются с паузой внутри таймаута символа; после исчерпания попыток
// символ пропускается в текущем цикле
func (s *Scheduler) fetchSymbol(ctx context.Context, symbol, interval string) fetched {
	b := &backoff.Backoff{
		Min:    200 * time.Millisecond,
		Max:    2 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return fetched{err: ctx.Err()}
			}
		}

		candles, err := s.client.GetKlines(ctx, symbol, interval, s.cfg.Trading.Candles)
		if err != nil {
			lastErr = err
			if retryable(err) {
				continue
			}
			return fetched{err: err}
		}
		oi, err := s.client.GetOpenInterest(ctx, symbol)
		if err != nil {
			lastErr = err
			if retryable(err) {
				continue
			}
			return fetched{err: err}
		}
		return fetched{candles: candles, oi: oi}
	}
	return fetched{err: lastErr}
}

// RunCycle выполняет один полный цикл оценки. Используется расписанием
// и ручным триггером через операционный сервер
func (s *Scheduler) RunCycle(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("цикл оценки уже выполняется")
	}
	defer s.running.Store(false)
	defer s.phase.Store(PhaseIdle)

	symbols := s.cfg.Trading.Symbols
	if len(symbols) == 0 {
		// Пустой список символов это «нечего делать», а не ошибка
		logger.Info("Цикл оценки: список символов пуст")
		return nil
	}

	interval := s.cfg.Trading.Interval
	started := time.Now()
	logger.Info("Цикл оценки начат",
		zap.String("interval", interval), zap.Int("symbols", len(symbols)))

	// Фаза выборки: свечи и OI по всем символам, с пределом параллелизма
	// и таймаутом на символ, чтобы один медленный символ не держал цикл
	s.phase.Store(PhaseFetching)
	timeout := time.Duration(s.cfg.Analysis.SymbolTimeoutS) * time.Second
	data := make([]fetched, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			data[i] = s.fetchSymbol(cctx, symbol, interval)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Фаза вычисления: обновление состояния потока и решение по каждому
	// символу. Снимок OI и фиксация CVD идут вместе для одного символа,
	// наполовину обновленного состояния не остается
	s.phase.Store(PhaseComputing)
	lines := make([]string, 0, len(symbols))
	for i, symbol := range symbols {
		if data[i].err != nil {
			logger.Warn("Символ пропущен в цикле",
				zap.String("symbol", symbol), zap.Error(data[i].err))
			lines = append(lines, notify.FormatError(symbol, data[i].err))
			continue
		}

		s.store.SnapshotOpenInterest(symbol, data[i].oi)
		flow := strategy.FlowInputs{
			CVD:     s.store.CurrentCVD(symbol),
			PrevCVD: s.store.PreviousCVD(symbol),
			OIDelta: s.store.OIDelta(symbol),
		}

		result, err := s.strat.Evaluate(data[i].candles, flow)
		if err != nil {
			logger.Warn("Оценка символа не удалась",
				zap.String("symbol", symbol), zap.Error(err))
			lines = append(lines, notify.FormatError(symbol, err))
			continue
		}

		// Точка сравнения следующего тика фиксируется после решения
		s.store.CommitCVD(symbol, flow.CVD)

		if err := s.sink.SaveSignal(ctx, result); err != nil {
			logger.Warn("Не удалось сохранить сигнал", zap.Error(err))
		}
		oiSnap := &models.OpenInterest{Symbol: symbol, Value: data[i].oi, Timestamp: started}
		if err := s.sink.SaveOpenInterest(ctx, oiSnap); err != nil {
			logger.Warn("Не удалось сохранить открытый интерес", zap.Error(err))
		}

		lines = append(lines, notify.FormatResult(result))
	}

	if s.checkpoint != nil {
		if err := s.checkpoint.Save(s.store.ExportCVD()); err != nil {
			logger.Warn("Не удалось записать чекпоинт CVD", zap.Error(err))
		}
	}

	// Фаза уведомления: батч отправляется всегда, даже если часть
	// символов упала — ошибки видны прямо в сообщении
	s.phase.Store(PhaseNotifying)
	degraded := s.degraded != nil && s.degraded()
	header := fmt.Sprintf("📈 Цикл оценки %s · %s", interval, started.Format("02.01 15:04"))
	message := notify.FormatBatch(header, lines, degraded)

	if err := s.notifier.Send(ctx, message); err != nil {
		logger.Error("Не удалось отправить уведомление", zap.Error(err))
	}

	logger.Info("Цикл оценки завершен",
		zap.Duration("elapsed", time.Since(started)), zap.Int("lines", len(lines)))
	return nil
}
