package strategy

import (
	"github.com/skalibog/galilei/pkg/models"
)

// FlowStrategy простая трехсторонняя классификация по направлению цены,
// CVD относительно прошлого тика и дельте открытого интереса
type FlowStrategy struct{}

// Name имя стратегии
func (s *FlowStrategy) Name() string {
	return "flow"
}

// Evaluate оценивает сигнал по последним двум свечам и состоянию потока
func (s *FlowStrategy) Evaluate(candles []*models.Candle, flow FlowInputs) (*models.SignalResult, error) {
	if err := checkLength(candles); err != nil {
		return nil, err
	}

	result := baseResult(s.Name(), candles, flow)

	switch result.Comment {
	case models.CommentStrongLong:
		result.LongEntry = true
	case models.CommentStrongShort:
		result.ShortEntry = true
	}

	return result, nil
}
