package config

import (
	"fmt"
	"os"

	"github.com/skalibog/galilei/pkg/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Config представляет полную конфигурацию приложения
type Config struct {
	Binance    BinanceConfig    `yaml:"binance"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Trading    TradingConfig    `yaml:"trading"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Galilei    GalileiConfig    `yaml:"galilei"`
	OIAlert    OIAlertConfig    `yaml:"oi_alert"`
	Weekly     WeeklyConfig     `yaml:"weekly"`
	Storage    StorageConfig    `yaml:"storage"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Server     ServerConfig     `yaml:"server"`
}

// BinanceConfig содержит настройки подключения к Binance
type BinanceConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`
}

// TelegramConfig содержит настройки доставки уведомлений
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID string `yaml:"chat_id"`
}

// TradingConfig содержит список символов и таймфрейм оценки
type TradingConfig struct {
	Symbols []string `yaml:"symbols"`
	// Interval таймфрейм свечей и одновременно сетка расписания (15m, 1h)
	Interval string `yaml:"interval"`
	// Candles сколько последних свечей запрашивать на каждую оценку
	Candles int `yaml:"candles"`
}

// AnalysisConfig содержит настройки движка принятия решений
type AnalysisConfig struct {
	// Strategy режим принятия решения: indicator или flow
	Strategy       string           `yaml:"strategy"`
	OILookback     int              `yaml:"oi_lookback"`
	RSIPeriod      int              `yaml:"rsi_period"`
	CCIPeriod      int              `yaml:"cci_period"`
	MACDFast       int              `yaml:"macd_fast"`
	MACDSlow       int              `yaml:"macd_slow"`
	MACDSignal     int              `yaml:"macd_signal"`
	BBPeriod       int              `yaml:"bb_period"`
	ADXPeriod      int              `yaml:"adx_period"`
	CMOPeriod      int              `yaml:"cmo_period"`
	Thresholds     ThresholdsConfig `yaml:"thresholds"`
	SymbolTimeoutS int              `yaml:"symbol_timeout_seconds"`
}

// ThresholdsConfig пороговые значения предикатов режима indicator
type ThresholdsConfig struct {
	RSILong       float64 `yaml:"rsi_long"`
	RSIShort      float64 `yaml:"rsi_short"`
	CCILong       float64 `yaml:"cci_long"`
	CCIShort      float64 `yaml:"cci_short"`
	ADXMin        float64 `yaml:"adx_min"`
	BandProximity float64 `yaml:"band_proximity"`
}

// GalileiConfig настройки мультитаймфреймового сканера «Галилей»
type GalileiConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
}

// OIAlertConfig настройки вахты открытого интереса
type OIAlertConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Threshold   float64 `yaml:"threshold"`
	PollSeconds int     `yaml:"poll_seconds"`
}

// WeeklyConfig настройки еженедельного отчета
type WeeklyConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"`
	Candles  int    `yaml:"candles"`
}

// StorageConfig настройки хранения сигналов
type StorageConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket"`
}

// CheckpointConfig настройки чекпоинта CVD
type CheckpointConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig настройки операционного HTTP-сервера
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load загружает конфигурацию из файла
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	logger.Info("Загружена конфигурация",
		zap.Any("symbols", config.Trading.Symbols),
		zap.String("interval", config.Trading.Interval),
		zap.String("strategy", config.Analysis.Strategy))
	return &config, nil
}

// applyDefaults заполняет незаданные поля стандартными значениями
func (c *Config) applyDefaults() {
	if c.Trading.Interval == "" {
		c.Trading.Interval = "15m"
	}
	if c.Trading.Candles == 0 {
		c.Trading.Candles = 100
	}
	if c.Analysis.Strategy == "" {
		c.Analysis.Strategy = "flow"
	}
	if c.Analysis.OILookback == 0 {
		c.Analysis.OILookback = 3
	}
	if c.Analysis.RSIPeriod == 0 {
		c.Analysis.RSIPeriod = 14
	}
	if c.Analysis.CCIPeriod == 0 {
		c.Analysis.CCIPeriod = 20
	}
	if c.Analysis.MACDFast == 0 {
		c.Analysis.MACDFast = 12
	}
	if c.Analysis.MACDSlow == 0 {
		c.Analysis.MACDSlow = 26
	}
	if c.Analysis.MACDSignal == 0 {
		c.Analysis.MACDSignal = 9
	}
	if c.Analysis.BBPeriod == 0 {
		c.Analysis.BBPeriod = 20
	}
	if c.Analysis.ADXPeriod == 0 {
		c.Analysis.ADXPeriod = 14
	}
	if c.Analysis.CMOPeriod == 0 {
		c.Analysis.CMOPeriod = 14
	}
	if c.Analysis.Thresholds.RSILong == 0 {
		c.Analysis.Thresholds.RSILong = 35
	}
	if c.Analysis.Thresholds.RSIShort == 0 {
		c.Analysis.Thresholds.RSIShort = 65
	}
	if c.Analysis.Thresholds.CCILong == 0 {
		c.Analysis.Thresholds.CCILong = -100
	}
	if c.Analysis.Thresholds.CCIShort == 0 {
		c.Analysis.Thresholds.CCIShort = 100
	}
	if c.Analysis.Thresholds.ADXMin == 0 {
		c.Analysis.Thresholds.ADXMin = 20
	}
	if c.Analysis.Thresholds.BandProximity == 0 {
		c.Analysis.Thresholds.BandProximity = 0.10
	}
	if c.Analysis.SymbolTimeoutS == 0 {
		c.Analysis.SymbolTimeoutS = 15
	}
	if c.Galilei.IntervalMinutes == 0 {
		c.Galilei.IntervalMinutes = 30
	}
	if c.OIAlert.Threshold == 0 {
		c.OIAlert.Threshold = 0.03
	}
	if c.OIAlert.PollSeconds == 0 {
		c.OIAlert.PollSeconds = 60
	}
	if c.Weekly.Interval == "" {
		c.Weekly.Interval = "15m"
	}
	if c.Weekly.Candles == 0 {
		c.Weekly.Candles = 2000
	}
	if c.Checkpoint.Path == "" {
		c.Checkpoint.Path = "cvd.yaml"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// validate проверяет конфигурацию перед стартом
// Здесь фатальные ошибки конфигурации: без них процесс не должен запускаться
func (c *Config) validate() error {
	if c.Telegram.Token == "" || c.Telegram.ChatID == "" {
		return fmt.Errorf("ошибка конфигурации: не заданы telegram.token и telegram.chat_id")
	}
	switch c.Analysis.Strategy {
	case "indicator", "flow":
	default:
		return fmt.Errorf("ошибка конфигурации: неизвестная стратегия %q", c.Analysis.Strategy)
	}
	if !supportedInterval(c.Trading.Interval) {
		return fmt.Errorf("ошибка конфигурации: неподдерживаемый таймфрейм %q", c.Trading.Interval)
	}
	if !supportedInterval(c.Weekly.Interval) {
		return fmt.Errorf("ошибка конфигурации: неподдерживаемый таймфрейм weekly %q", c.Weekly.Interval)
	}
	if c.Storage.Enabled && c.Storage.URL == "" {
		return fmt.Errorf("ошибка конфигурации: storage.enabled без storage.url")
	}
	return nil
}

// supportedInterval проверяет таймфрейм по списку поддерживаемых
func supportedInterval(v string) bool {
	switch v {
	case "1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "1d":
		return true
	}
	return false
}
