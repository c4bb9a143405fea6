package flowstate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Checkpoint хранит CVD всех символов в плоском yaml-файле символ→значение.
// Загружается при старте и перезаписывается после каждого цикла оценки,
// чтобы рестарт процесса не сбрасывал базу потока в ноль.
type Checkpoint struct {
	path string
}

// NewCheckpoint создает чекпоинт по указанному пути
func NewCheckpoint(path string) *Checkpoint {
	return &Checkpoint{path: path}
}

// Load читает сохраненные значения CVD. Отсутствие файла не ошибка:
// первый запуск начинает с нуля
func (c *Checkpoint) Load() (map[string]float64, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]float64{}, nil
		}
		return nil, fmt.Errorf("ошибка чтения чекпоинта: %w", err)
	}

	values := make(map[string]float64)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("ошибка разбора чекпоинта: %w", err)
	}
	return values, nil
}

// Save перезаписывает чекпоинт целиком
func (c *Checkpoint) Save(values map[string]float64) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("ошибка сериализации чекпоинта: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи чекпоинта: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("ошибка замены чекпоинта: %w", err)
	}
	return nil
}
