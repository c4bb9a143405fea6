package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/skalibog/galilei/internal/config"
	"github.com/skalibog/galilei/pkg/models"
)

// Максимум свечей за один запрос к Binance
const maxKlineLimit = 1000

// BinanceClient клиент для взаимодействия с фьючерсным рынком Binance
type BinanceClient struct {
	futures *futures.Client
}

// NewBinanceClient создает новый клиент Binance
func NewBinanceClient(cfg config.BinanceConfig) (*BinanceClient, error) {
	// Тестовый контур переключается пакетной переменной до создания клиента
	futures.UseTestnet = cfg.Testnet
	futuresClient := futures.NewClient(cfg.APIKey, cfg.APISecret)

	return &BinanceClient{
		futures: futuresClient,
	}, nil
}

// GetKlines получает последние limit свечей, отсортированные по возрастанию времени
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*models.Candle, error) {
	klines, err := c.futures.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения свечей %s: %w", symbol, classify(err))
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("пустой ответ на запрос свечей %s: %w", symbol, ErrDataUnavailable)
	}

	candles := make([]*models.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := convertKline(symbol, interval, k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// GetKlinesRange получает до total свечей, разбивая запрос на страницы,
// так как лимит Binance на один запрос составляет 1000 свечей.
// Используется еженедельным отчетом для глубокой истории.
func (c *BinanceClient) GetKlinesRange(ctx context.Context, symbol, interval string, total int) ([]*models.Candle, error) {
	step := models.IntervalDuration(interval)
	endTime := time.Now()

	var result []*models.Candle
	for len(result) < total {
		limit := total - len(result)
		if limit > maxKlineLimit {
			limit = maxKlineLimit
		}

		klines, err := c.futures.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			EndTime(endTime.UnixMilli()).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения страницы свечей %s: %w", symbol, classify(err))
		}
		if len(klines) == 0 {
			break
		}

		page := make([]*models.Candle, 0, len(klines))
		for _, k := range klines {
			candle, err := convertKline(symbol, interval, k)
			if err != nil {
				return nil, err
			}
			page = append(page, candle)
		}

		// Страницы идут назад по времени, добавляем в начало
		result = append(page, result...)

		// Смещаем конец запроса за самую старую полученную свечу
		endTime = page[0].OpenTime.Add(-step)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("пустая история свечей %s: %w", symbol, ErrDataUnavailable)
	}
	return result, nil
}

// GetOpenInterest получает текущий открытый интерес
func (c *BinanceClient) GetOpenInterest(ctx context.Context, symbol string) (float64, error) {
	oi, err := c.futures.NewGetOpenInterestService().
		Symbol(symbol).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения открытого интереса %s: %w", symbol, classify(err))
	}
	if oi == nil || oi.OpenInterest == "" {
		return 0, fmt.Errorf("пустой ответ на запрос открытого интереса %s: %w", symbol, ErrDataUnavailable)
	}

	value, err := strconv.ParseFloat(oi.OpenInterest, 64)
	if err != nil {
		// Источник за время жизни продукта менял форму этого ответа,
		// поэтому проверяем поле до использования
		return 0, fmt.Errorf("открытый интерес %s = %q: %w", symbol, oi.OpenInterest, ErrSchemaMismatch)
	}

	return value, nil
}

// convertKline переводит сырую свечу в нормализованную модель с числовыми полями
func convertKline(symbol, interval string, k *futures.Kline) (*models.Candle, error) {
	open, err1 := strconv.ParseFloat(k.Open, 64)
	high, err2 := strconv.ParseFloat(k.High, 64)
	low, err3 := strconv.ParseFloat(k.Low, 64)
	closePrice, err4 := strconv.ParseFloat(k.Close, 64)
	volume, err5 := strconv.ParseFloat(k.Volume, 64)
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return nil, fmt.Errorf("свеча %s %s: %w", symbol, interval, ErrSchemaMismatch)
		}
	}

	return &models.Candle{
		Symbol:    symbol,
		Interval:  interval,
		OpenTime:  time.UnixMilli(k.OpenTime),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
		CloseTime: time.UnixMilli(k.CloseTime),
	}, nil
}
