package storage

import (
	"context"

	"github.com/skalibog/galilei/internal/config"
	"github.com/skalibog/galilei/pkg/models"
)

// Storage приемник результатов оценки и снимков открытого интереса.
// Запись необязательна для работы движка, ошибки записи только логируются
type Storage interface {
	SaveSignal(ctx context.Context, signal *models.SignalResult) error
	SaveOpenInterest(ctx context.Context, oi *models.OpenInterest) error
	Close()
}

// New возвращает InfluxDB-хранилище либо заглушку, если запись выключена
func New(cfg config.StorageConfig) (Storage, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	return NewInfluxDBStorage(cfg)
}

// Noop хранилище-заглушка
type Noop struct{}

func (Noop) SaveSignal(ctx context.Context, signal *models.SignalResult) error { return nil }

func (Noop) SaveOpenInterest(ctx context.Context, oi *models.OpenInterest) error { return nil }

func (Noop) Close() {}
