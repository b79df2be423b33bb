package billingrun

import (
	"go.uber.org/fx"

	"github.com/recordbay/recordbay/internal/billingrun/service"
)

var Module = fx.Module("billingrun",
	fx.Provide(service.NewOrchestrator),
)
