package exchange

import (
	"context"
	"errors"

	"github.com/adshao/go-binance/v2/common"
)

// Классы ошибок адаптера. Планировщик различает их через errors.Is:
// восстановимые ошибки пропускают символ в текущем цикле, не роняя процесс.
var (
	// ErrDataUnavailable пустой или бесполезный ответ источника
	ErrDataUnavailable = errors.New("данные недоступны")
	// ErrSchemaMismatch ответ декодировался, но форма полей не совпала с ожидаемой
	ErrSchemaMismatch = errors.New("неожиданная форма ответа")
	// ErrRateLimited источник сигнализирует о троттлинге, нужен повтор с паузой
	ErrRateLimited = errors.New("превышен лимит запросов")
	// ErrTransient временная сетевая ошибка
	ErrTransient = errors.New("временная ошибка источника")
)

// Коды Binance, означающие троттлинг
const (
	codeTooManyRequests = -1003
	codeRateLimit       = -1015
)

// classify сводит ошибку вызова API к классу из таксономии адаптера
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case codeTooManyRequests, codeRateLimit:
			return errors.Join(ErrRateLimited, err)
		}
		return errors.Join(ErrTransient, err)
	}

	// Сетевые ошибки и таймауты транспорта
	return errors.Join(ErrTransient, err)
}
