package charge

import "go.uber.org/fx"

var Module = fx.Module("charge",
	fx.Provide(NewAggregator),
)
