package storage

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/skalibog/galilei/internal/config"
	"github.com/skalibog/galilei/pkg/models"
)

// InfluxDBStorage реализует интерфейс Storage с использованием InfluxDB
type InfluxDBStorage struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	org      string
	bucket   string
}

// NewInfluxDBStorage создает новое хранилище InfluxDB
func NewInfluxDBStorage(cfg config.StorageConfig) (*InfluxDBStorage, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	health, err := client.Health(context.Background())
	if err != nil {
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	writeAPI := client.WriteAPI(cfg.Organization, cfg.Bucket)

	return &InfluxDBStorage{
		client:   client,
		writeAPI: writeAPI,
		org:      cfg.Organization,
		bucket:   cfg.Bucket,
	}, nil
}

// Close закрывает соединение с базой данных
func (s *InfluxDBStorage) Close() {
	s.writeAPI.Flush()
	s.client.Close()
}

// SaveSignal сохраняет результат оценки сигнала
func (s *InfluxDBStorage) SaveSignal(ctx context.Context, signal *models.SignalResult) error {
	point := influxdb2.NewPoint(
		"signals",
		map[string]string{
			"symbol":   signal.Symbol,
			"interval": signal.Interval,
			"strategy": signal.Strategy,
		},
		map[string]interface{}{
			"close":            signal.Close,
			"prev_close":       signal.PrevClose,
			"price_change_pct": signal.PriceChangePct,
			"oi_delta":         signal.OIDelta,
			"cvd":              signal.CVD,
			"prev_cvd":         signal.PrevCVD,
			"comment":          signal.Comment,
			"long_entry":       signal.LongEntry,
			"long_exit":        signal.LongExit,
			"short_entry":      signal.ShortEntry,
			"short_exit":       signal.ShortExit,
		},
		signal.Timestamp,
	)

	s.writeAPI.WritePoint(point)
	s.writeAPI.Flush()

	return nil
}

// SaveOpenInterest сохраняет снимок открытого интереса
func (s *InfluxDBStorage) SaveOpenInterest(ctx context.Context, oi *models.OpenInterest) error {
	point := influxdb2.NewPoint(
		"open_interest",
		map[string]string{
			"symbol": oi.Symbol,
		},
		map[string]interface{}{
			"value": oi.Value,
		},
		oi.Timestamp,
	)

	s.writeAPI.WritePoint(point)
	s.writeAPI.Flush()

	return nil
}
