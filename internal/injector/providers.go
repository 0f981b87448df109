package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/droneforge/internal/config"
	"github.com/zeusync/droneforge/internal/core/catalog"
	"github.com/zeusync/droneforge/internal/core/events/bus"
	"github.com/zeusync/droneforge/internal/core/observability/log"
	"github.com/zeusync/droneforge/internal/server"
)

// ProviderSet builds a Server from a Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideCatalog,
	bus.New,
	server.NewServer,
)

func ProvideLogger(cfg config.Config) log.Log {
	return log.New(cfg.Level())
}

// ProvideCatalog loads cfg.CatalogPath, or the built-in drone catalog when unset.
func ProvideCatalog(cfg config.Config, logger log.Log) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Drone(), nil
	}
	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		logger.Error("Failed to load catalog", log.String("path", cfg.CatalogPath), log.Error(err))
		return nil, err
	}
	logger.Info("Catalog loaded",
		log.String("path", cfg.CatalogPath),
		log.Int("parts", len(cat.Entries())),
		log.Int("steps", cat.Len()),
		log.Bool("guided", cat.Guided()))
	return cat, nil
}
