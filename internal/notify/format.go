package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/skalibog/galilei/pkg/models"
)

// num печатает число без артефактов float, с ограничением знаков
func num(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).String()
}

// signed то же, но с явным плюсом у положительных значений
func signed(v float64, places int32) string {
	s := num(v, places)
	if v > 0 {
		return "+" + s
	}
	return s
}

// FormatResult строит строку уведомления по результату оценки
func FormatResult(r *models.SignalResult) string {
	var icon string
	switch r.Comment {
	case models.CommentStrongLong:
		icon = "🟢"
	case models.CommentStrongShort:
		icon = "🔴"
	default:
		icon = "⚪"
	}

	line := fmt.Sprintf("%s %s %s | %s | цена %s (%s%%) | OIΔ %s | CVD %s",
		icon, r.Symbol, r.Interval, r.Comment,
		num(r.Close, 4), signed(r.PriceChangePct, 2),
		signed(r.OIDelta, 2), num(r.CVD, 2))

	var flags []string
	if r.LongEntry {
		flags = append(flags, "вход в лонг")
	}
	if r.LongExit {
		flags = append(flags, "выход из лонга")
	}
	if r.ShortEntry {
		flags = append(flags, "вход в шорт")
	}
	if r.ShortExit {
		flags = append(flags, "выход из шорта")
	}
	if len(flags) > 0 {
		line += " | " + strings.Join(flags, ", ")
	}

	return line
}

// FormatError строит строку об ошибке по символу, не прервавшей цикл
func FormatError(symbol string, err error) string {
	return fmt.Sprintf("⚠️ %s: %v", symbol, err)
}

// FormatBatch собирает батч-уведомление цикла в одно сообщение
func FormatBatch(header string, lines []string, degraded bool) string {
	var b strings.Builder
	b.WriteString(header)
	if degraded {
		b.WriteString("\n⚠️ Поток сделок нестабилен, OI/CVD могут отставать")
	}
	for _, line := range lines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

// FormatGalilei строка сигнала сканера «Галилей»
func FormatGalilei(symbol string) string {
	return fmt.Sprintf("🟢 Сигнал по стратегии «Галилей» на %s", symbol)
}

// FormatOIAlert строка вахты открытого интереса
func FormatOIAlert(symbol string, base, current, changePct float64) string {
	return fmt.Sprintf("⚠️ Открытый интерес %s изменился на %s%%\nБаза: %s\nСейчас: %s",
		symbol, num(changePct, 2), num(base, 2), num(current, 2))
}
