package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coffeeshop/internal/clock"
	"github.com/smallbiznis/coffeeshop/internal/config"
	"github.com/smallbiznis/coffeeshop/internal/migration"
	"github.com/smallbiznis/coffeeshop/internal/observability"
	"github.com/smallbiznis/coffeeshop/internal/server"
	"github.com/smallbiznis/coffeeshop/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Schema must exist before the server resolves its services.
		migration.Module,

		// Catalog, events, authorization and rate limiting come in through
		// the server module.
		server.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
