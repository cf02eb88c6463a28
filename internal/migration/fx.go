package migration

import (
	"github.com/smallbiznis/coffeeshop/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// Run brings the schema up to date before the HTTP server starts.
func Run(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	log = log.Named("migration")

	if cfg.DBType == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		log.Info("sql migrations applied")
		if !cfg.DBSynchronize {
			return nil
		}
	}

	if err := AutoMigrate(conn); err != nil {
		return err
	}
	log.Info("schema synchronized", zap.String("dialect", conn.Dialector.Name()))
	return nil
}
