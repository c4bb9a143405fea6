package strategy

import (
	"github.com/skalibog/galilei/internal/config"
	"github.com/skalibog/galilei/internal/indicators"
	"github.com/skalibog/galilei/pkg/models"
)

// IndicatorStrategy пороговая стратегия по индикаторам: каждый флаг это
// конъюнкция независимых предикатов — экстремум осциллятора, направление
// тренда гистограммы MACD, близость цены к противоположной полосе
// Боллинджера и подтверждение потоком. Входы дополнительно требуют
// роста OI и силы тренда по ADX.
type IndicatorStrategy struct {
	cfg config.AnalysisConfig
}

// Name имя стратегии
func (s *IndicatorStrategy) Name() string {
	return "indicator"
}

// Evaluate оценивает сигнал по серии свечей и состоянию потока
func (s *IndicatorStrategy) Evaluate(candles []*models.Candle, flow FlowInputs) (*models.SignalResult, error) {
	if err := checkLength(candles); err != nil {
		return nil, err
	}

	rsi, err := indicators.RSI(candles, s.cfg.RSIPeriod)
	if err != nil {
		return nil, err
	}
	cci, err := indicators.CCI(candles, s.cfg.CCIPeriod)
	if err != nil {
		return nil, err
	}
	hist, err := indicators.MACDHist(candles, s.cfg.MACDFast, s.cfg.MACDSlow, s.cfg.MACDSignal)
	if err != nil {
		return nil, err
	}
	upper, lower, err := indicators.Bollinger(candles, s.cfg.BBPeriod, 2.0)
	if err != nil {
		return nil, err
	}
	adx, err := indicators.ADX(candles, s.cfg.ADXPeriod)
	if err != nil {
		return nil, err
	}

	result := baseResult(s.Name(), candles, flow)
	th := s.cfg.Thresholds
	closePrice := result.Close

	// Экстремумы осцилляторов
	oscLong := rsi < th.RSILong || cci < th.CCILong
	oscShort := rsi > th.RSIShort || cci > th.CCIShort

	// Трехточечный монотонный ход гистограммы MACD
	macdUp := hist[0] < hist[1] && hist[1] < hist[2]
	macdDown := hist[0] > hist[1] && hist[1] > hist[2]

	// Близость к полосе: в пределах доли ширины канала от границы
	width := upper - lower
	nearLower := width > 0 && closePrice <= lower+th.BandProximity*width
	nearUpper := width > 0 && closePrice >= upper-th.BandProximity*width

	// Подтверждения потоком и тренд-фильтр
	cvdLong := flow.CVD > 0
	cvdShort := flow.CVD < 0
	oiRising := flow.OIDelta > 0
	oiFalling := flow.OIDelta < 0
	trending := adx > th.ADXMin

	// Входы требуют роста OI (набор новых позиций) и силы тренда,
	// выходы наоборот ждут снижения OI (разгрузку позиций)
	result.LongEntry = oscLong && macdUp && nearLower && cvdLong && oiRising && trending
	result.ShortEntry = oscShort && macdDown && nearUpper && cvdShort && oiRising && trending
	result.LongExit = oscShort && macdDown && nearUpper && cvdShort && oiFalling
	result.ShortExit = oscLong && macdUp && nearLower && cvdLong && oiFalling

	return result, nil
}
