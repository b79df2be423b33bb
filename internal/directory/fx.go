package directory

import (
	"go.uber.org/fx"

	"github.com/recordbay/recordbay/internal/directory/repository"
)

var Module = fx.Module("directory",
	fx.Provide(repository.New),
)
