package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recordbay/recordbay/internal/clock"
	"github.com/recordbay/recordbay/internal/config"
	invoicedomain "github.com/recordbay/recordbay/internal/invoice/domain"
	"github.com/recordbay/recordbay/internal/invoice/repository"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  invoicedomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		clock: p.Clock,
		repo:  repository.New(),
	}
}

func ProvideAssembler(genID *snowflake.Node, cfg config.Config) *Assembler {
	return NewAssembler(genID, cfg.Billing.Currency)
}

func (s *Service) List(ctx context.Context, filter invoicedomain.ListFilter) ([]invoicedomain.Invoice, error) {
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	inv, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *Service) Finalize(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == invoicedomain.StatusFinal {
		return inv, nil
	}
	if len(inv.Lines) == 0 {
		return nil, invoicedomain.ErrInvoiceEmpty
	}

	now := s.clock.Now(ctx)
	transitioned, err := s.repo.MarkFinal(ctx, s.db, id, now)
	if err != nil {
		return nil, err
	}
	if transitioned {
		s.log.Info("invoice finalized",
			zap.String("invoice_id", id.String()),
			zap.String("number", inv.Number))
	}
	return s.GetByID(ctx, id)
}
