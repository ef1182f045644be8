package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"luckydraw/application/dto"
	"luckydraw/domain/entities"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AdminAPI is the admin application service exposed over HTTP
type AdminAPI interface {
	GetRequest(ctx context.Context, ref entities.RequestRef, adminID int64) (*entities.RequestSummary, error)
	ListPending(ctx context.Context, adminID int64, limit int) ([]*entities.RequestSummary, error)
	ApproveRequest(ctx context.Context, ref entities.RequestRef, adminID int64) (*dto.DecisionResult, error)
	RejectRequest(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*dto.DecisionResult, error)
	HoldRequest(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*dto.DecisionResult, error)
	Settings(ctx context.Context, adminID int64) (map[string]string, error)
	SetSetting(ctx context.Context, adminID int64, key, value string) error
	Stats(ctx context.Context, adminID int64) (*dto.AdminStats, error)
	Reconcile(ctx context.Context, adminID int64) ([]entities.LedgerDiscrepancy, error)
}

// Config holds HTTP server configuration
type Config struct {
	Port       int
	JWTSecret  string
	Production bool
}

// Server serves the health check and the admin API
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// NewServer builds the gin engine and its routes
func NewServer(cfg Config, admin AdminAPI) *Server {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger())

	engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	h := &handlers{admin: admin}
	v1 := engine.Group("/api/v1/admin")
	v1.Use(JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/requests/pending", h.listPending)
		v1.GET("/requests/:ref", h.getRequest)
		v1.POST("/requests/:ref/approve", h.approve)
		v1.POST("/requests/:ref/reject", h.reject)
		v1.POST("/requests/:ref/hold", h.hold)
		v1.GET("/settings", h.settings)
		v1.PUT("/settings/:key", h.setSetting)
		v1.GET("/stats", h.stats)
		v1.GET("/ledger/reconcile", h.reconcile)
	}

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the HTTP handler, for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves in the background; a listen failure is logged
func (s *Server) Start() {
	go func() {
		log.WithField("addr", s.http.Addr).Info("HTTP server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server stopped")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
