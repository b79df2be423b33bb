package serviceledger

import (
	"go.uber.org/fx"

	"github.com/recordbay/recordbay/internal/serviceledger/repository"
)

var Module = fx.Module("serviceledger",
	fx.Provide(repository.New),
)
