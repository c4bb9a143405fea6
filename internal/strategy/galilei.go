package strategy

import (
	"github.com/skalibog/galilei/internal/indicators"
	"github.com/skalibog/galilei/pkg/models"
)

// Параметры сканера «Галилей»
const (
	galileiBBPeriod  = 20
	galileiCMOPeriod = 14
	galileiADXPeriod = 14
	galileiCMOFloor  = -55.0
	galileiADXFloor  = 35.0
)

// GalileiScan мультитаймфреймовый сканер на вход в лонг: касание нижней
// полосы Боллинджера на часе, глубокая перепроданность CMO и сильный тренд
// по ADX на тридцати минутах, разворот Parabolic SAR вверх на пяти минутах.
// Все четыре условия должны выполниться одновременно.
type GalileiScan struct{}

// Check проверяет условия сканера по трем сериям свечей
func (g *GalileiScan) Check(h1, m30, m5 []*models.Candle) (bool, error) {
	if len(h1) == 0 || len(m5) == 0 {
		return false, indicators.ErrInsufficientData
	}

	// Условие 1: касание нижней полосы Боллинджера (1h)
	_, lower, err := indicators.Bollinger(h1, galileiBBPeriod, 2.0)
	if err != nil {
		return false, err
	}
	if h1[len(h1)-1].Close > lower {
		return false, nil
	}

	// Условие 2: CMO в глубокой перепроданности (30m)
	cmo, err := indicators.CMO(m30, galileiCMOPeriod)
	if err != nil {
		return false, err
	}
	if cmo > galileiCMOFloor {
		return false, nil
	}

	// Условие 3: сильный тренд по ADX (30m)
	adx, err := indicators.ADX(m30, galileiADXPeriod)
	if err != nil {
		return false, err
	}
	if adx < galileiADXFloor {
		return false, nil
	}

	// Условие 4: Parabolic SAR развернулся под цену (5m)
	sar, err := indicators.SAR(m5)
	if err != nil {
		return false, err
	}
	if sar > m5[len(m5)-1].Close {
		return false, nil
	}

	return true, nil
}
