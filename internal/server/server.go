// Package server поднимает операционный HTTP-интерфейс: проверка здоровья,
// ручной запуск цикла оценки и диагностический снимок состояния потока.
// Бизнес-логики здесь нет.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skalibog/galilei/internal/config"
	"github.com/skalibog/galilei/internal/flowstate"
	"github.com/skalibog/galilei/internal/scheduler"
	"github.com/skalibog/galilei/pkg/logger"
	"go.uber.org/zap"
)

// Server операционный HTTP-сервер
type Server struct {
	addr     string
	sched    *scheduler.Scheduler
	store    *flowstate.Store
	degraded scheduler.DegradedFunc

	baseCtx context.Context
}

// New создает сервер
func New(cfg config.ServerConfig, sched *scheduler.Scheduler, store *flowstate.Store, degraded scheduler.DegradedFunc) *Server {
	return &Server{
		addr:     cfg.Addr,
		sched:    sched,
		store:    store,
		degraded: degraded,
	}
}

// Run обслуживает запросы до отмены контекста
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx

	srv := &http.Server{Addr: s.addr, Handler: s.router()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("Операционный сервер запущен", zap.String("addr", s.addr))

	select {
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Warn("Ошибка остановки сервера", zap.Error(err))
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.healthz)
	router.POST("/run", s.runCycle)
	router.GET("/flowstate", s.flowState)
	return router
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"phase":  s.sched.Phase(),
	})
}

// runCycle запускает один цикл оценки вне расписания
func (s *Server) runCycle(c *gin.Context) {
	go func() {
		if err := s.sched.RunCycle(s.baseCtx); err != nil {
			logger.Warn("Ручной цикл оценки не выполнен", zap.Error(err))
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (s *Server) flowState(c *gin.Context) {
	snap := s.store.Snapshot()
	if s.degraded != nil {
		snap.Degraded = s.degraded()
	}
	c.JSON(http.StatusOK, snap)
}
