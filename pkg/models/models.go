package models

import (
	"time"
)

// Candle представляет свечу
type Candle struct {
	Symbol    string
	Interval  string
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// TradeSide сторона агрессора сделки
type TradeSide int

const (
	Buy TradeSide = iota
	Sell
)

// Trade представляет одну сделку из потока
// Сделки не хранятся, они сразу складываются в CVD
type Trade struct {
	Symbol   string
	Price    float64
	Quantity float64
	Side     TradeSide
	Time     time.Time
}

// OpenInterest представляет снимок открытого интереса
type OpenInterest struct {
	Symbol    string
	Value     float64
	Timestamp time.Time
}

// Комментарии сигнала для режима flow
const (
	CommentStrongLong  = "strong-long"
	CommentStrongShort = "strong-short"
	CommentNeutral     = "neutral"
)

// SignalResult представляет результат оценки сигнала по одному символу
type SignalResult struct {
	Symbol         string
	Interval       string
	Strategy       string
	Timestamp      time.Time
	Close          float64
	PrevClose      float64
	PriceChangePct float64
	OIDelta        float64
	CVD            float64
	PrevCVD        float64
	Comment        string
	LongEntry      bool
	LongExit       bool
	ShortEntry     bool
	ShortExit      bool
}

// SymbolFlow снимок состояния потока по одному символу
type SymbolFlow struct {
	Symbol    string    `json:"symbol"`
	CVD       float64   `json:"cvd"`
	PrevCVD   float64   `json:"prev_cvd"`
	OIHistory []float64 `json:"oi_history"`
	OIDelta   float64   `json:"oi_delta"`
}

// FlowSnapshot диагностический снимок всего трекера потока
type FlowSnapshot struct {
	Timestamp time.Time    `json:"timestamp"`
	Degraded  bool         `json:"degraded"`
	Symbols   []SymbolFlow `json:"symbols"`
}

// IntervalDuration конвертирует строковый таймфрейм в duration
func IntervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "2h":
		return 2 * time.Hour
	case "4h":
		return 4 * time.Hour
	case "6h":
		return 6 * time.Hour
	case "8h":
		return 8 * time.Hour
	case "12h":
		return 12 * time.Hour
	case "1d":
		return 24 * time.Hour
	case "3d":
		return 72 * time.Hour
	case "1w":
		return 7 * 24 * time.Hour
	default:
		return time.Hour
	}
}
