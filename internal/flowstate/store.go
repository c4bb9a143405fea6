package flowstate

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skalibog/galilei/pkg/models"
)

// Lookback по умолчанию: дельта OI считается к значению три снимка назад
const DefaultLookback = 3

// Store хранит состояние потока по каждому символу: накопленную дельту
// объемов (CVD), точку сравнения прошлого тика и ограниченную историю
// открытого интереса. Единственный общий изменяемый ресурс между потоком
// сделок и циклом оценки, поэтому все методы защищены мьютексом.
type Store struct {
	mu       sync.Mutex
	lookback int
	capacity int
	state    map[string]*symbolState
}

type symbolState struct {
	cvd     float64
	prevCVD float64
	oi      []float64
}

// NewStore создает трекер состояния потока
func NewStore(lookback int) *Store {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Store{
		lookback: lookback,
		capacity: lookback + 1,
		state:    make(map[string]*symbolState),
	}
}

func (s *Store) symbol(sym string) *symbolState {
	st, ok := s.state[sym]
	if !ok {
		st = &symbolState{}
		s.state[sym] = st
	}
	return st
}

// RecordTrade накапливает сделку в CVD символа
func (s *Store) RecordTrade(trade models.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.symbol(trade.Symbol)
	if trade.Side == models.Buy {
		st.cvd += trade.Quantity
	} else {
		st.cvd -= trade.Quantity
	}
}

// CurrentCVD текущее значение CVD символа
func (s *Store) CurrentCVD(symbol string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbol(symbol).cvd
}

// PreviousCVD точка сравнения, зафиксированная прошлым тиком оценки
func (s *Store) PreviousCVD(symbol string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbol(symbol).prevCVD
}

// CommitCVD фиксирует новую точку сравнения. Вызывается один раз за тик,
// после принятия решения: следующий тик сравнивает CVD с этим значением.
// Запаздывание на один тик намеренное, движок читает «CVD вырос с прошлой
// проверки», а не «CVD положителен».
func (s *Store) CommitCVD(symbol string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbol(symbol).prevCVD = value
}

// RestoreCVD восстанавливает CVD из чекпоинта при старте процесса,
// чтобы рестарт не обнулял базу потока и не давал ложный сильный сигнал
func (s *Store) RestoreCVD(values map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sym, v := range values {
		st := s.symbol(sym)
		st.cvd = v
		st.prevCVD = v
	}
}

// ExportCVD отдает копию CVD всех символов для записи чекпоинта
func (s *Store) ExportCVD() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]float64, len(s.state))
	for sym, st := range s.state {
		out[sym] = st.cvd
	}
	return out
}

// SnapshotOpenInterest добавляет снимок OI в ограниченную историю,
// вытесняя самый старый при переполнении
func (s *Store) SnapshotOpenInterest(symbol string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.symbol(symbol)
	st.oi = append(st.oi, value)
	if len(st.oi) > s.capacity {
		st.oi = st.oi[len(st.oi)-s.capacity:]
	}
}

// OIDelta разница между последним снимком OI и снимком lookback назад.
// Пока истории не хватает, возвращает 0 — холодный старт не ошибка
// и не повод экстраполировать.
func (s *Store) OIDelta(symbol string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.symbol(symbol)
	if len(st.oi) < s.lookback+1 {
		return 0.0
	}
	last := st.oi[len(st.oi)-1]
	base := st.oi[len(st.oi)-1-s.lookback]
	return last - base
}

// Snapshot диагностический снимок всего трекера
func (s *Store) Snapshot() models.FlowSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.FlowSnapshot{
		Timestamp: time.Now(),
		Symbols:   make([]models.SymbolFlow, 0, len(s.state)),
	}

	symbols := make([]string, 0, len(s.state))
	for sym := range s.state {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		st := s.state[sym]
		flow := models.SymbolFlow{
			Symbol:    sym,
			CVD:       st.cvd,
			PrevCVD:   st.prevCVD,
			OIHistory: append([]float64(nil), st.oi...),
		}
		if len(st.oi) >= s.lookback+1 {
			flow.OIDelta = st.oi[len(st.oi)-1] - st.oi[len(st.oi)-1-s.lookback]
		}
		snap.Symbols = append(snap.Symbols, flow)
	}
	return snap
}

// Consume единственный потребитель канала сделок: вся мутация CVD проходит
// через одну горутину, поток и цикл оценки встречаются только в Store
func Consume(ctx context.Context, trades <-chan models.Trade, store *Store) {
	for {
		select {
		case trade, ok := <-trades:
			if !ok {
				return
			}
			store.RecordTrade(trade)
		case <-ctx.Done():
			return
		}
	}
}
