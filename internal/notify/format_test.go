package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/skalibog/galilei/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestFormatResultStrongLong(t *testing.T) {
	line := FormatResult(&models.SignalResult{
		Symbol:         "BTCUSDT",
		Interval:       "15m",
		Comment:        models.CommentStrongLong,
		Close:          65000.12345,
		PriceChangePct: 1.234,
		OIDelta:        12.5,
		CVD:            340.7,
		LongEntry:      true,
	})

	assert.True(t, strings.HasPrefix(line, "🟢"))
	assert.Contains(t, line, "BTCUSDT 15m")
	assert.Contains(t, line, models.CommentStrongLong)
	assert.Contains(t, line, "+1.23%")
	assert.Contains(t, line, "OIΔ +12.5")
	assert.Contains(t, line, "вход в лонг")
}

func TestFormatResultNeutralNoFlags(t *testing.T) {
	line := FormatResult(&models.SignalResult{
		Symbol:   "ETHUSDT",
		Interval: "15m",
		Comment:  models.CommentNeutral,
		Close:    3000,
	})

	assert.True(t, strings.HasPrefix(line, "⚪"))
	assert.NotContains(t, line, "вход")
	assert.NotContains(t, line, "выход")
}

func TestFormatResultCleanNumbers(t *testing.T) {
	// Числа печатаются без хвостов двоичного представления
	line := FormatResult(&models.SignalResult{
		Symbol:  "BTCUSDT",
		Comment: models.CommentNeutral,
		Close:   0.1 + 0.2,
	})
	assert.Contains(t, line, "цена 0.3 ")
	assert.NotContains(t, line, "0.30000000000000004")
}

func TestFormatError(t *testing.T) {
	line := FormatError("ETHUSDT", errors.New("данные недоступны"))
	assert.Equal(t, "⚠️ ETHUSDT: данные недоступны", line)
}

func TestFormatBatch(t *testing.T) {
	msg := FormatBatch("заголовок", []string{"строка1", "строка2"}, false)
	assert.Equal(t, "заголовок\nстрока1\nстрока2", msg)
}

func TestFormatBatchDegraded(t *testing.T) {
	msg := FormatBatch("заголовок", []string{"строка1"}, true)
	lines := strings.Split(msg, "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Поток сделок нестабилен")
}

func TestFormatOIAlert(t *testing.T) {
	msg := FormatOIAlert("BTCUSDT", 1000, 1050, 5)
	assert.Contains(t, msg, "BTCUSDT")
	assert.Contains(t, msg, "5%")
	assert.Contains(t, msg, "1000")
	assert.Contains(t, msg, "1050")
}

func TestFormatGalilei(t *testing.T) {
	assert.Contains(t, FormatGalilei("SOLUSDT"), "SOLUSDT")
	assert.Contains(t, FormatGalilei("SOLUSDT"), "Галилей")
}
