package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/recordbay/recordbay/internal/billingrun"
	"github.com/recordbay/recordbay/internal/charge"
	"github.com/recordbay/recordbay/internal/clock"
	"github.com/recordbay/recordbay/internal/config"
	"github.com/recordbay/recordbay/internal/directory"
	"github.com/recordbay/recordbay/internal/invoice"
	"github.com/recordbay/recordbay/internal/migration"
	"github.com/recordbay/recordbay/internal/observability"
	"github.com/recordbay/recordbay/internal/redis"
	"github.com/recordbay/recordbay/internal/server"
	"github.com/recordbay/recordbay/internal/serviceledger"
	"github.com/recordbay/recordbay/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		observability.FxLogger(),
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		redis.Module,
		migration.Module,

		directory.Module,
		serviceledger.Module,
		charge.Module,
		invoice.Module,
		billingrun.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
