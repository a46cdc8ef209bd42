// Package app wires the MiniTicker client: configuration, storage, the
// backend client, the query cache and every view store.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/apiclient"
	"github.com/spec-kit/miniticker/internal/auth"
	"github.com/spec-kit/miniticker/internal/clock"
	"github.com/spec-kit/miniticker/internal/config"
	"github.com/spec-kit/miniticker/internal/events"
	"github.com/spec-kit/miniticker/internal/observability"
	"github.com/spec-kit/miniticker/internal/querycache"
	"github.com/spec-kit/miniticker/internal/scheduler"
	"github.com/spec-kit/miniticker/internal/service"
	"github.com/spec-kit/miniticker/internal/storage"
	"github.com/spec-kit/miniticker/internal/store"
	"github.com/spec-kit/miniticker/internal/worker"
)

// Options override parts of the wiring. Zero values use the real ones.
type Options struct {
	KV        storage.KV
	Transport http.RoundTripper
	Clock     clock.Clock
	Scheduler scheduler.Scheduler
	Notifiers []service.Notifier
}

// Services groups the backend resource wrappers.
type Services struct {
	Auth     *service.AuthService
	Tickets  *service.TicketService
	Catalog  *service.CatalogService
	Users    *service.UserService
	Activity *service.ActivityService
}

// Stores groups the view stores.
type Stores struct {
	Auth        *store.AuthStore
	Solicitudes *store.SolicitudesStore
	Detail      *store.TicketDetailStore
	Activity    *store.ActivityStore
	Dashboard   *store.DashboardStore
	Department  *store.DepartmentStore
	Users       *store.UserStore
	Overview    *store.OverviewStore
	UI          *store.UIStore
}

// Container owns every long lived component of one client session.
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	KV            storage.KV
	Session       *auth.SessionStore
	Client        *apiclient.Client
	Bus           events.Dispatcher
	Cache         *querycache.Cache
	Clock         clock.Clock
	Scheduler     scheduler.Scheduler
	Services      Services
	Stores        Stores
	Notifications *service.NotificationService
	Location      *time.Location

	resetters     []store.Resetter
	stopNotifier  func()
	unsubExpired  func()
	stopScheduler func()
}

// New builds a container from cfg.
func New(cfg *config.Config, logger *zap.Logger, opts Options) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Metrics:  observability.NewMetrics(),
		Clock:    opts.Clock,
		Location: cfg.Locale.Location(),
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}

	c.KV = opts.KV
	if c.KV == nil {
		kv, err := storage.Open(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		c.KV = kv
	}
	c.Session = auth.NewSessionStore(c.KV, logger)
	c.Bus = events.NewInMemoryDispatcher(logger)

	client, err := apiclient.New(apiclient.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout(),
		Session:   c.Session,
		Transport: opts.Transport,
		Logger:    logger,
		Metrics:   c.Metrics,
		OnUnauthorized: func(ctx context.Context) {
			_ = c.Bus.Publish(ctx, events.NewEvent(events.TopicSessionExpired, events.SessionExpiredPayload{}))
		},
	})
	if err != nil {
		_ = c.KV.Close()
		return nil, err
	}
	c.Client = client

	c.Cache = querycache.New(querycache.Dependencies{
		Bus:     c.Bus,
		Clock:   c.Clock,
		Logger:  logger,
		Metrics: c.Metrics,
	})

	c.Scheduler = opts.Scheduler
	if c.Scheduler == nil {
		cron := scheduler.NewCron(logger)
		c.Scheduler = cron
		c.stopScheduler = cron.Stop
	}

	c.Services = Services{
		Auth:     service.NewAuthService(service.AuthDependencies{Backend: client}),
		Tickets:  service.NewTicketService(service.TicketDependencies{Backend: client}),
		Catalog:  service.NewCatalogService(service.CatalogDependencies{Backend: client}),
		Users:    service.NewUserService(service.UserDependencies{Backend: client}),
		Activity: service.NewActivityService(service.ActivityDependencies{Backend: client}),
	}
	c.buildStores()

	c.Notifications = service.NewNotificationService(c.Bus, logger, opts.Notifiers...)
	c.stopNotifier = worker.StartNotificationWorker(c.Notifications)
	c.unsubExpired = c.Bus.Subscribe(events.TopicSessionExpired, c.handleSessionExpired)

	return c, nil
}

func (c *Container) buildStores() {
	svc := c.Services
	s := Stores{
		Solicitudes: store.NewSolicitudesStore(store.SolicitudesDependencies{
			Tickets:  svc.Tickets,
			Catalog:  svc.Catalog,
			Cache:    c.Cache,
			Session:  c.Session,
			Location: c.Location,
			PageSize: c.Config.Tickets.PageSize,
			Logger:   c.Logger,
		}),
		Detail: store.NewTicketDetailStore(store.TicketDetailDependencies{
			Tickets:  svc.Tickets,
			Cache:    c.Cache,
			Clock:    c.Clock,
			Location: c.Location,
			Logger:   c.Logger,
		}),
		Activity: store.NewActivityStore(store.ActivityDependencies{
			Activity:  svc.Activity,
			Cache:     c.Cache,
			Scheduler: c.Scheduler,
			Bus:       c.Bus,
			Interval:  c.Config.Polling.ActivityInterval(),
			Logger:    c.Logger,
		}),
		Dashboard: store.NewDashboardStore(store.DashboardDependencies{
			Stats:     svc.Activity,
			Catalog:   svc.Catalog,
			Cache:     c.Cache,
			Scheduler: c.Scheduler,
			Logger:    c.Logger,
			Interval:  c.Config.Polling.DashboardInterval(),
		}),
		Department: store.NewDepartmentStore(store.DepartmentDependencies{
			Catalog:  svc.Catalog,
			Managers: svc.Users,
			Cache:    c.Cache,
			Logger:   c.Logger,
		}),
		Users: store.NewUserStore(store.UserDependencies{
			Users:  svc.Users,
			Cache:  c.Cache,
			Logger: c.Logger,
		}),
		Overview: store.NewOverviewStore(store.OverviewDependencies{
			Tickets: svc.Tickets,
			Cache:   c.Cache,
			Logger:  c.Logger,
		}),
		UI: store.NewUIStore(c.KV, c.Logger),
	}
	c.resetters = []store.Resetter{
		s.Solicitudes, s.Detail, s.Activity, s.Dashboard, s.Department, s.Users, s.Overview,
	}
	s.Auth = store.NewAuthStore(store.AuthDependencies{
		Auth:      svc.Auth,
		Session:   c.Session,
		Cache:     c.Cache,
		Bus:       c.Bus,
		Logger:    c.Logger,
		Resetters: c.resetters,
	})
	c.Stores = s
}

// handleSessionExpired drops cached data once the backend rejected the
// token. The session itself was already cleared by the client.
func (c *Container) handleSessionExpired(_ context.Context, _ events.Event) error {
	c.Cache.Clear()
	for _, r := range c.resetters {
		r.Reset()
	}
	c.Logger.Info("session expired, local state dropped")
	return nil
}

// Dispose stops background work and releases storage.
func (c *Container) Dispose() error {
	c.Stores.Activity.Stop()
	c.Stores.Dashboard.Stop()
	if c.unsubExpired != nil {
		c.unsubExpired()
	}
	if c.stopNotifier != nil {
		c.stopNotifier()
	}
	if c.stopScheduler != nil {
		c.stopScheduler()
	}
	c.Cache.Close()
	return c.KV.Close()
}
