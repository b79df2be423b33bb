package invoice

import (
	"go.uber.org/fx"

	"github.com/recordbay/recordbay/internal/invoice/repository"
	"github.com/recordbay/recordbay/internal/invoice/service"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.New),
	fx.Provide(service.ProvideAssembler),
	fx.Provide(service.NewService),
)
