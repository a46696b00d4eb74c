package fx

import (
	"context"
	"database/sql"

	"battle-tracker/internal/config"
	"battle-tracker/internal/database"
	"battle-tracker/internal/logger"
	"battle-tracker/internal/metrics"
	"battle-tracker/internal/repository"
	"battle-tracker/internal/server"
	"battle-tracker/internal/service"
	"battle-tracker/internal/settings"
	"battle-tracker/internal/snapshot"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideOverlayServer(svc *service.OverlayService, m *metrics.Metrics, logger zerolog.Logger) *server.OverlayServer {
	return server.NewOverlayServer(svc, m.Handler(), logger)
}

// RegisterOverlay starts the ingestion service with the app and closes the journal after it stops.
func RegisterOverlay(lc fx.Lifecycle, svc *service.OverlayService, db *sql.DB, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: svc.Start,
		OnStop: func(ctx context.Context) error {
			err := svc.Stop(ctx)
			if cerr := db.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("error closing database connection")
			}
			return err
		},
	})
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(metrics.New),
	// ingestion
	fx.Provide(
		fx.Annotate(snapshot.NewReader, fx.As(new(service.SnapshotReader))),
		fx.Annotate(settings.NewStore, fx.As(new(service.SettingsStore))),
		fx.Annotate(repository.NewJournalRepository, fx.As(new(service.Journal))),
	),
	// svc
	fx.Provide(service.NewOverlayService),
	fx.Invoke(RegisterOverlay),
	// server
	fx.Provide(ProvideOverlayServer),
)
