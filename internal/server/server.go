// Package server exposes the operator HTTP surface: billing run triggers and
// reports, invoice inspection and finalization, volume-price quotes.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingrundomain "github.com/recordbay/recordbay/internal/billingrun/domain"
	"github.com/recordbay/recordbay/internal/charge"
	"github.com/recordbay/recordbay/internal/config"
	invoicedomain "github.com/recordbay/recordbay/internal/invoice/domain"
)

type Server struct {
	log        *zap.Logger
	db         *gorm.DB
	runner     billingrundomain.Runner
	invoiceSvc invoicedomain.Service
	aggregator *charge.Aggregator

	engine *gin.Engine
	http   *http.Server
}

type Param struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	DB         *gorm.DB
	Runner     billingrundomain.Runner
	InvoiceSvc invoicedomain.Service
	Aggregator *charge.Aggregator
}

func New(p Param) *Server {
	if p.Cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		log:        p.Log.Named("server"),
		db:         p.DB,
		runner:     p.Runner,
		invoiceSvc: p.InvoiceSvc,
		aggregator: p.Aggregator,
		engine:     gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	s.http = &http.Server{Addr: p.Cfg.HTTP.Addr, Handler: s.engine}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.Health)
	s.engine.GET("/readyz", s.Ready)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	v1.POST("/billing/runs", s.TriggerBillingRun)
	v1.GET("/billing/runs", s.ListBillingRuns)
	v1.GET("/invoices", s.ListInvoices)
	v1.GET("/invoices/:id", s.GetInvoice)
	v1.POST("/invoices/:id/finalize", s.FinalizeInvoice)
	v1.POST("/pricing/volume-quote", s.VolumeQuote)
}

func Register(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server", zap.Error(err))
				}
			}()
			s.log.Info("http server listening", zap.String("addr", s.http.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.http.Shutdown(ctx)
		},
	})
}
