// Routes:
//
//	GET    /api/v1/health          (public)
//	POST   /api/v1/sessions        (public)
//	GET    /api/v1/backups         (auth)
//	PUT    /api/v1/backups/{name}  (auth)
//	GET    /api/v1/backups/{name}  (auth)
//	DELETE /api/v1/backups/{name}  (auth)
package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	backupAPI "payfamily/internal/app/server/api/http/backup"
	healthAPI "payfamily/internal/app/server/api/http/health"
	"payfamily/internal/app/server/api/http/middleware"
	"payfamily/internal/app/server/api/http/middleware/auth"
	"payfamily/internal/app/server/api/http/middleware/logger"
	sessionAPI "payfamily/internal/app/server/api/http/session"
	"payfamily/internal/app/server/config"
	"payfamily/internal/domain/backup"
	"payfamily/internal/domain/owner"
	"payfamily/internal/domain/session"
	"payfamily/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health  *healthAPI.Handler
	Session *sessionAPI.Handler
	Backup  *backupAPI.Handler
}

type API struct {
	Router   *chi.Mux
	Sessions *session.Service
}

// New registers every operation on a chi router.
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *API {
	mux := chi.NewMux()

	hc := huma.DefaultConfig("PayFamily Backup API", "1.0.0")
	hc.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	api := humachi.New(mux, hc)

	sessions := session.NewService(postgres.NewSessionRepository(storage, log), cfg.Session.TTL, log)

	h := handlers(storage, sessions, log)
	h.Health.SetupRoutes(api)
	h.Session.SetupRoutes(api)
	h.Backup.SetupRoutes(api)

	return &API{Router: mux, Sessions: sessions}
}

func handlers(storage *postgres.Storage, sessions *session.Service, log *slog.Logger) *Handlers {
	authMW := auth.New(sessions, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(storage, log, middlewares.GetAllAndClear())

	ownerService := owner.NewService(postgres.NewOwnerRepository(storage, log), log)
	middlewares.Add(loggerMW.Middleware())
	sessionHandler := sessionAPI.NewHandler(ownerService, sessions, log, middlewares.GetAllAndClear())

	backupService := backup.NewService(postgres.NewBackupRepository(storage, log), log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	backupHandler := backupAPI.NewHandler(backupService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:  healthHandler,
		Session: sessionHandler,
		Backup:  backupHandler,
	}
}
