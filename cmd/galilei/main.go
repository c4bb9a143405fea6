package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/skalibog/galilei/internal/analysis/weekly"
	"github.com/skalibog/galilei/internal/config"
	"github.com/skalibog/galilei/internal/exchange"
	"github.com/skalibog/galilei/internal/flowstate"
	"github.com/skalibog/galilei/internal/notify"
	"github.com/skalibog/galilei/internal/scheduler"
	"github.com/skalibog/galilei/internal/server"
	"github.com/skalibog/galilei/internal/storage"
	"github.com/skalibog/galilei/internal/strategy"
	"github.com/skalibog/galilei/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Init()
	defer logger.GetLogger().Sync()

	// Обработка флагов командной строки
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	flag.Parse()

	// Загружаем конфигурацию, без валидной конфигурации не стартуем
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	// Контекст процесса, отменяется сигналами завершения
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Завершение работы...")
		cancel()
	}()

	// Клиент биржи
	client, err := exchange.NewBinanceClient(cfg.Binance)
	if err != nil {
		logger.Fatal("Ошибка инициализации клиента биржи", zap.Error(err))
	}

	// Трекер состояния потока и чекпоинт CVD: рестарт процесса
	// не обнуляет базу потока
	store := flowstate.NewStore(cfg.Analysis.OILookback)
	checkpoint := flowstate.NewCheckpoint(cfg.Checkpoint.Path)
	saved, err := checkpoint.Load()
	if err != nil {
		logger.Fatal("Ошибка чтения чекпоинта CVD", zap.Error(err))
	}
	store.RestoreCVD(saved)

	// Хранилище сигналов (опционально)
	sink, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal("Ошибка инициализации хранилища", zap.Error(err))
	}
	defer sink.Close()

	// Стратегия принятия решения
	strat, err := strategy.New(cfg.Analysis)
	if err != nil {
		logger.Fatal("Ошибка инициализации стратегии", zap.Error(err))
	}

	notifier := notify.NewTelegram(cfg.Telegram)

	// Постоянная подписка на поток сделок; единственный потребитель
	// канала сериализует все мутации CVD
	stream := exchange.NewTradeStream(cfg.Trading.Symbols, 0)
	go func() {
		if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Поток сделок завершился", zap.Error(err))
		}
	}()
	go flowstate.Consume(ctx, stream.Trades(), store)

	// Оркестратор конвейера оценки
	sched := scheduler.New(cfg, client, store, checkpoint, strat, notifier, sink, stream.Degraded)

	// Дополнительные задачи по конфигурации
	if cfg.Galilei.Enabled {
		go func() {
			if err := sched.RunGalilei(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Сканер Галилей завершился", zap.Error(err))
			}
		}()
	}
	if cfg.OIAlert.Enabled {
		watcher := scheduler.NewOIWatcher(client, notifier, cfg.Trading.Symbols, cfg.OIAlert)
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Вахта OI завершилась", zap.Error(err))
			}
		}()
	}
	if cfg.Weekly.Enabled {
		reporter := weekly.NewAnalyzer(client, cfg.Weekly)
		go func() {
			if err := sched.RunWeekly(ctx, reporter); err != nil && ctx.Err() == nil {
				logger.Error("Еженедельный отчет завершился", zap.Error(err))
			}
		}()
	}

	// Операционный HTTP-сервер
	srv := server.New(cfg.Server, sched, store, stream.Degraded)
	go func() {
		if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Операционный сервер завершился", zap.Error(err))
		}
	}()

	// Основной цикл оценки блокирует главную горутину до завершения
	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("Цикл оценки остановился", zap.Error(err))
	}
}
