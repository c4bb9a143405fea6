// Package indicators считает технические индикаторы по серии свечей.
// Все функции чистые: значение для последней свечи по упорядоченной серии.
// При нехватке данных возвращается ErrInsufficientData — вызывающая сторона
// не должна оценивать сигнал по короткой серии.
package indicators

import (
	"errors"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"github.com/skalibog/galilei/pkg/models"
)

// ErrInsufficientData серия короче, чем требует окно индикатора
var ErrInsufficientData = errors.New("недостаточно данных для индикатора")

// Нейтральные значения при вырожденной серии (деление на ноль внутри
// индикатора): булевы сравнения ниже по конвейеру остаются корректными
const (
	neutralRSI = 50.0
	neutralCCI = 0.0
	neutralADX = 0.0
	neutralCMO = 0.0
)

// RSI значение RSI для последней свечи (сглаживание Уайлдера)
func RSI(candles []*models.Candle, period int) (float64, error) {
	if len(candles) < period+1 {
		return 0, fmt.Errorf("RSI: %d свечей при окне %d: %w", len(candles), period, ErrInsufficientData)
	}
	prices := closes(candles)
	if flat(prices[len(prices)-period-1:]) {
		// Вырожденная серия: нет ни роста, ни падения
		return neutralRSI, nil
	}
	values := talib.Rsi(prices, period)
	return sanitize(values[len(values)-1], neutralRSI), nil
}

// CCI значение CCI для последней свечи
func CCI(candles []*models.Candle, period int) (float64, error) {
	if len(candles) < period+1 {
		return 0, fmt.Errorf("CCI: %d свечей при окне %d: %w", len(candles), period, ErrInsufficientData)
	}
	values := talib.Cci(highs(candles), lows(candles), closes(candles), period)
	return sanitize(values[len(values)-1], neutralCCI), nil
}

// MACDHist последние три значения гистограммы MACD, по возрастанию времени.
// Три точки нужны движку решений для чтения короткого тренда гистограммы
func MACDHist(candles []*models.Candle, fast, slow, signal int) ([3]float64, error) {
	var out [3]float64
	need := slow + signal + 2
	if len(candles) < need {
		return out, fmt.Errorf("MACD: %d свечей при требуемых %d: %w", len(candles), need, ErrInsufficientData)
	}
	_, _, hist := talib.Macd(closes(candles), fast, slow, signal)
	n := len(hist)
	out[0] = sanitize(hist[n-3], 0)
	out[1] = sanitize(hist[n-2], 0)
	out[2] = sanitize(hist[n-1], 0)
	return out, nil
}

// Bollinger верхняя и нижняя полосы Боллинджера для последней свечи
func Bollinger(candles []*models.Candle, period int, dev float64) (upper, lower float64, err error) {
	if len(candles) < period+1 {
		return 0, 0, fmt.Errorf("BBands: %d свечей при окне %d: %w", len(candles), period, ErrInsufficientData)
	}
	up, _, low := talib.BBands(closes(candles), period, dev, dev, 0)
	return sanitize(up[len(up)-1], 0), sanitize(low[len(low)-1], 0), nil
}

// ADX сила тренда для последней свечи (сглаживание Уайлдера)
func ADX(candles []*models.Candle, period int) (float64, error) {
	// ADX стабилизируется только после двух окон
	need := 2*period + 1
	if len(candles) < need {
		return 0, fmt.Errorf("ADX: %d свечей при требуемых %d: %w", len(candles), need, ErrInsufficientData)
	}
	values := talib.Adx(highs(candles), lows(candles), closes(candles), period)
	return sanitize(values[len(values)-1], neutralADX), nil
}

// SAR значение Parabolic SAR для последней свечи со стандартными
// коэффициентами ускорения
func SAR(candles []*models.Candle) (float64, error) {
	if len(candles) < 2 {
		return 0, fmt.Errorf("SAR: %d свечей: %w", len(candles), ErrInsufficientData)
	}
	values := talib.Sar(highs(candles), lows(candles), 0.02, 0.2)
	return sanitize(values[len(values)-1], 0), nil
}

// CMO момент Чанде для последней свечи
func CMO(candles []*models.Candle, period int) (float64, error) {
	if len(candles) < period+1 {
		return 0, fmt.Errorf("CMO: %d свечей при окне %d: %w", len(candles), period, ErrInsufficientData)
	}
	values := talib.Cmo(closes(candles), period)
	return sanitize(values[len(values)-1], neutralCMO), nil
}

// flat true, если все значения серии совпадают
func flat(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// sanitize заменяет NaN и бесконечности на нейтральное значение
func sanitize(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func closes(candles []*models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func highs(candles []*models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

func lows(candles []*models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}
