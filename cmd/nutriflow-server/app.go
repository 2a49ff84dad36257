package main

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriflow/nutriflow/internal/config"
	"github.com/nutriflow/nutriflow/internal/domain/billing"
	"github.com/nutriflow/nutriflow/internal/domain/client"
	"github.com/nutriflow/nutriflow/internal/domain/dashboard"
	"github.com/nutriflow/nutriflow/internal/domain/event"
	"github.com/nutriflow/nutriflow/internal/domain/identity"
	"github.com/nutriflow/nutriflow/internal/domain/lab"
	"github.com/nutriflow/nutriflow/internal/domain/menu"
	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/internal/platform/blobstore"
	"github.com/nutriflow/nutriflow/internal/platform/db"
	"github.com/nutriflow/nutriflow/internal/platform/metrics"
	"github.com/nutriflow/nutriflow/internal/platform/middleware"
	"github.com/nutriflow/nutriflow/internal/seed"
)

const tokenIssuer = "nutriflow"

// app holds the domain services built on one pool.
type app struct {
	identity  *identity.Service
	clients   *client.Service
	labs      *lab.Service
	menus     *menu.Service
	events    *event.Service
	dashboard *dashboard.Service
	billing   *billing.Service
}

// newApp wires repositories and services. A nil store disables lab report
// documents; a nil m records no metrics.
func newApp(pool *pgxpool.Pool, cfg *config.Config, store blobstore.Store, m *metrics.Metrics) *app {
	tx := db.NewTransactor(pool)
	clientRepo := client.NewRepo(pool)

	catalog := lab.NewMarkerCatalog(lab.NewMarkerRepo(pool), cfg.MarkerCacheSize, cfg.MarkerCacheTTL)
	labs := lab.NewService(lab.NewTestRepo(pool), lab.NewReportRepo(pool), catalog, clientRepo, tx)
	if store != nil {
		labs.SetBlobStore(store, middleware.ParseLimit(cfg.UploadLimit))
	}
	labs.SetMetrics(m)

	menus := menu.NewService(menu.NewTemplateRepo(pool), menu.NewAssignmentRepo(pool), clientRepo, tx)
	events := event.NewService(event.NewRepo(pool), clientRepo)

	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), tokenIssuer, cfg.TokenTTL)
	users := identity.NewService(identity.NewUserRepo(pool), tokens)
	users.SetMetrics(m)

	return &app{
		identity:  users,
		clients:   client.NewService(clientRepo, labs, menus, events),
		labs:      labs,
		menus:     menus,
		events:    events,
		dashboard: dashboard.NewService(dashboard.NewRepo(pool), events),
		billing:   billing.NewService(billing.NewRepo(pool)),
	}
}

func (a *app) registrars() []routeRegistrar {
	return []routeRegistrar{
		identity.NewHandler(a.identity),
		client.NewHandler(a.clients),
		lab.NewHandler(a.labs),
		menu.NewHandler(a.menus),
		event.NewHandler(a.events),
		dashboard.NewHandler(a.dashboard),
		billing.NewHandler(a.billing),
	}
}

func (a *app) seedDeps() seed.Deps {
	return seed.Deps{
		Users:   a.identity,
		Markers: a.labs.Catalog(),
		Labs:    a.labs,
		Menus:   a.menus,
		Clients: a.clients,
		Events:  a.events,
		Plans:   a.billing,
	}
}
