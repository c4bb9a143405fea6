package strategy

import (
	"testing"
	"time"

	"github.com/skalibog/galilei/internal/config"
	"github.com/skalibog/galilei/internal/indicators"
	"github.com/skalibog/galilei/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// series строит серию свечей по ценам закрытия
func series(closes ...float64) []*models.Candle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]*models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = &models.Candle{
			Symbol:    "BTCUSDT",
			Interval:  "15m",
			OpenTime:  start.Add(time.Duration(i) * 15 * time.Minute),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
			CloseTime: start.Add(time.Duration(i+1) * 15 * time.Minute),
		}
	}
	return candles
}

func analysisDefaults() config.AnalysisConfig {
	return config.AnalysisConfig{
		Strategy:   "indicator",
		OILookback: 3,
		RSIPeriod:  14,
		CCIPeriod:  20,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		BBPeriod:   20,
		ADXPeriod:  14,
		CMOPeriod:  14,
		Thresholds: config.ThresholdsConfig{
			RSILong:       35,
			RSIShort:      65,
			CCILong:       -100,
			CCIShort:      100,
			ADXMin:        20,
			BandProximity: 0.10,
		},
	}
}

func TestNewSelectsStrategy(t *testing.T) {
	cfg := analysisDefaults()

	cfg.Strategy = "indicator"
	s, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "indicator", s.Name())

	cfg.Strategy = "flow"
	s, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "flow", s.Name())

	cfg.Strategy = "merged"
	_, err = New(cfg)
	require.Error(t, err)
}

func TestPriceChangePct(t *testing.T) {
	assert.InDelta(t, 10.0, priceChangePct(110, 100), 1e-9)
	assert.InDelta(t, -5.0, priceChangePct(95, 100), 1e-9)
	// Нулевое предыдущее закрытие не приводит к делению на ноль
	assert.Zero(t, priceChangePct(110, 0))
}

func TestFlowStrategyTable(t *testing.T) {
	tests := []struct {
		name       string
		closes     []float64
		flow       FlowInputs
		comment    string
		longEntry  bool
		shortEntry bool
	}{
		{
			name:      "цена вверх, OI вверх, CVD вверх",
			closes:    []float64{100, 110},
			flow:      FlowInputs{CVD: 10, PrevCVD: 5, OIDelta: 3},
			comment:   models.CommentStrongLong,
			longEntry: true,
		},
		{
			name:       "цена вниз, OI вверх, CVD вниз",
			closes:     []float64{110, 100},
			flow:       FlowInputs{CVD: 5, PrevCVD: 10, OIDelta: 3},
			comment:    models.CommentStrongShort,
			shortEntry: true,
		},
		{
			name:    "цена вверх, OI вниз, CVD вверх",
			closes:  []float64{100, 110},
			flow:    FlowInputs{CVD: 10, PrevCVD: 5, OIDelta: -3},
			comment: models.CommentNeutral,
		},
		{
			name:    "цена вниз, OI вверх, CVD вверх",
			closes:  []float64{110, 100},
			flow:    FlowInputs{CVD: 10, PrevCVD: 5, OIDelta: 3},
			comment: models.CommentNeutral,
		},
		{
			name:    "цена не изменилась",
			closes:  []float64{100, 100},
			flow:    FlowInputs{CVD: 10, PrevCVD: 5, OIDelta: 3},
			comment: models.CommentNeutral,
		},
	}

	strat := &FlowStrategy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := strat.Evaluate(series(tt.closes...), tt.flow)
			require.NoError(t, err)
			assert.Equal(t, tt.comment, result.Comment)
			assert.Equal(t, tt.longEntry, result.LongEntry)
			assert.Equal(t, tt.shortEntry, result.ShortEntry)
			assert.False(t, result.LongExit)
			assert.False(t, result.ShortExit)
		})
	}
}

func TestFlowStrategyInsufficientData(t *testing.T) {
	strat := &FlowStrategy{}
	_, err := strat.Evaluate(series(100), FlowInputs{})
	require.ErrorIs(t, err, indicators.ErrInsufficientData)
}

func TestFlowStrategyIdempotent(t *testing.T) {
	strat := &FlowStrategy{}
	candles := series(100, 110)
	flow := FlowInputs{CVD: 10, PrevCVD: 5, OIDelta: 3}

	first, err := strat.Evaluate(candles, flow)
	require.NoError(t, err)
	second, err := strat.Evaluate(candles, flow)
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
}

// downtrendSeries крутой нисходящий тренд с замедлением в хвосте:
// перепроданность по осцилляторам при растущей гистограмме MACD
func downtrendSeries() []*models.Candle {
	closes := make([]float64, 0, 200)
	price := 2000.0
	for i := 0; i < 194; i++ {
		closes = append(closes, price)
		price -= 5
	}
	// Замедление в хвосте достаточно мягкое, чтобы закрытие осталось
	// у нижней полосы, но гистограмма MACD уже развернулась вверх
	for _, step := range []float64{4.98, 4.96, 4.94, 4.92, 4.9, 4.88} {
		closes = append(closes, price)
		price -= step
	}
	return series(closes...)
}

func TestIndicatorStrategyLongEntry(t *testing.T) {
	strat := &IndicatorStrategy{cfg: analysisDefaults()}

	result, err := strat.Evaluate(downtrendSeries(), FlowInputs{
		CVD:     500,
		PrevCVD: 100,
		OIDelta: 5,
	})
	require.NoError(t, err)

	assert.True(t, result.LongEntry)
	assert.False(t, result.LongExit)
	assert.False(t, result.ShortEntry)
	assert.False(t, result.ShortExit)
}

func TestIndicatorStrategyNoEntryWithoutFlowConfirmation(t *testing.T) {
	strat := &IndicatorStrategy{cfg: analysisDefaults()}

	// Отрицательный CVD снимает подтверждение потоком
	result, err := strat.Evaluate(downtrendSeries(), FlowInputs{
		CVD:     -500,
		PrevCVD: 100,
		OIDelta: 5,
	})
	require.NoError(t, err)
	assert.False(t, result.LongEntry)
}

func TestIndicatorStrategyNoEntryWithoutOIRise(t *testing.T) {
	strat := &IndicatorStrategy{cfg: analysisDefaults()}

	result, err := strat.Evaluate(downtrendSeries(), FlowInputs{
		CVD:     500,
		PrevCVD: 100,
		OIDelta: -5,
	})
	require.NoError(t, err)
	assert.False(t, result.LongEntry)
}

func TestIndicatorStrategyInsufficientData(t *testing.T) {
	strat := &IndicatorStrategy{cfg: analysisDefaults()}
	_, err := strat.Evaluate(series(100, 101, 102), FlowInputs{})
	require.ErrorIs(t, err, indicators.ErrInsufficientData)
}

func TestIndicatorStrategyIdempotent(t *testing.T) {
	strat := &IndicatorStrategy{cfg: analysisDefaults()}
	candles := downtrendSeries()
	flow := FlowInputs{CVD: 500, PrevCVD: 100, OIDelta: 5}

	first, err := strat.Evaluate(candles, flow)
	require.NoError(t, err)
	second, err := strat.Evaluate(candles, flow)
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
}
