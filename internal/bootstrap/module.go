package bootstrap

import (
	"context"
	"log/slog"
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"esilogis/internal/bootstrap/config"
	"esilogis/internal/bootstrap/database"
	"esilogis/internal/bootstrap/logging"
	cacheinfra "esilogis/internal/infrastructure/cache"
	"esilogis/internal/infrastructure/notify"
	"esilogis/internal/infrastructure/persistence/repository"
	"esilogis/internal/infrastructure/persistence/uow"
	"esilogis/internal/ports"
	"esilogis/internal/transport/httpapi"
	"esilogis/internal/usecase/auth"
	"esilogis/internal/usecase/intervention"
	"esilogis/internal/usecase/notification"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			repository.NewInterventionRepository,
			fx.As(new(ports.InterventionRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			repository.NewIdentityRepository,
			fx.As(new(ports.IdentityRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			repository.NewAssetRepository,
			fx.As(new(ports.AssetRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			repository.NewNotificationRepository,
			fx.As(new(ports.NotificationRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			uow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideCache),
	fx.Provide(provideMailer),
	fx.Provide(notification.NewDeliverer),
	fx.Provide(provideMailQueue),
	fx.Provide(provideNotifier),
	fx.Provide(notification.NewInbox),
	fx.Provide(provideLifecycle),
	fx.Provide(provideAuth),
	fx.Provide(provideHTTPHandler),
	fx.Provide(provideServices),
)

// Services is what commands get out of the container.
type Services struct {
	App       *App
	Lifecycle *intervention.Service
	Auth      *auth.Service
	Inbox     *notification.Inbox
	Deliverer *notification.Deliverer
	MailQueue ports.MailQueue
	Identity  ports.IdentityRepository
	Assets    ports.AssetRepository
	HTTP      *httpapi.Handler
}

// WorkerQueue returns the NATS queue the mail worker consumes from. The
// container's queue is reused when it already is one; otherwise a dedicated
// connection is opened and release closes it.
func (s *Services) WorkerQueue() (queue *notify.NATSQueue, release func() error, err error) {
	if natsQueue, ok := s.MailQueue.(*notify.NATSQueue); ok {
		return natsQueue, func() error { return nil }, nil
	}

	queue, err = notify.NewNATSQueue(natsConfig(s.App.Config))
	if err != nil {
		return nil, nil, err
	}
	return queue, queue.Close, nil
}

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	cfg, err := config.Load(ctx, p.ConfigFile)
	if err != nil {
		return config.Config{}, err
	}
	logging.Configure(nil, cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideCache(lc fx.Lifecycle, ctx context.Context, cfg config.Config, db *gorm.DB) (ports.Cache, error) {
	if !strings.EqualFold(cfg.Cache.Driver, "redis") {
		return cacheinfra.NewDBCache(db), nil
	}

	redisCache, err := cacheinfra.NewRedisCache(ctx, cacheinfra.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return redisCache.Close()
		},
	})
	return redisCache, nil
}

func provideMailer(ctx context.Context, cfg config.Config) ports.Mailer {
	smtp := cfg.Notification.SMTP
	if strings.TrimSpace(smtp.Host) == "" {
		logging.Warn(
			logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx")),
			"notification.smtp.host is empty, emails are logged instead of sent",
		)
		return notify.LogMailer{}
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     smtp.Host,
		Port:     smtp.Port,
		Username: smtp.Username,
		Password: smtp.Password,
		From:     smtp.From,
	})
}

func provideMailQueue(lc fx.Lifecycle, cfg config.Config, deliverer *notification.Deliverer) (ports.MailQueue, error) {
	if !strings.EqualFold(cfg.Notification.Queue, "nats") {
		return notify.NewInlineQueue(deliverer.Deliver), nil
	}

	queue, err := notify.NewNATSQueue(natsConfig(cfg))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return queue.Close()
		},
	})
	return queue, nil
}

func natsConfig(cfg config.Config) notify.NATSConfig {
	return notify.NATSConfig{
		URL:        cfg.Notification.NATS.URL,
		Subject:    cfg.Notification.NATS.Subject,
		QueueGroup: cfg.Notification.NATS.QueueGroup,
	}
}

func provideNotifier(cfg config.Config, identity ports.IdentityRepository, repo ports.NotificationRepository, queue ports.MailQueue) ports.Notifier {
	return notification.NewDispatcher(identity, repo, queue, cfg.Notification.FrontendURL)
}

type lifecycleParams struct {
	fx.In

	Config   config.Config
	Repo     ports.InterventionRepository
	Identity ports.IdentityRepository
	Assets   ports.AssetRepository
	UoW      ports.UnitOfWork
	Notifier ports.Notifier
	Cache    ports.Cache
}

func provideLifecycle(p lifecycleParams) *intervention.Service {
	return intervention.NewService(p.Repo, p.Identity, p.Assets, p.UoW, p.Notifier, p.Cache, intervention.Config{
		PlanTxTimeout: p.Config.Intervention.PlanTxTimeout,
		StatsTTL:      p.Config.Cache.TTL,
	})
}

func provideAuth(cfg config.Config, identity ports.IdentityRepository) *auth.Service {
	return auth.NewService(identity, auth.Config{
		Secret:   cfg.Auth.JWTSecret,
		TokenTTL: cfg.Auth.TokenTTL,
		Issuer:   cfg.Auth.Issuer,
	})
}

func provideHTTPHandler(lifecycle *intervention.Service, authSvc *auth.Service, inbox *notification.Inbox) *httpapi.Handler {
	return httpapi.NewHandler(lifecycle, authSvc, inbox)
}

type servicesParams struct {
	fx.In

	App       *App
	Lifecycle *intervention.Service
	Auth      *auth.Service
	Inbox     *notification.Inbox
	Deliverer *notification.Deliverer
	MailQueue ports.MailQueue
	Identity  ports.IdentityRepository
	Assets    ports.AssetRepository
	HTTP      *httpapi.Handler
}

func provideServices(p servicesParams) *Services {
	return &Services{
		App:       p.App,
		Lifecycle: p.Lifecycle,
		Auth:      p.Auth,
		Inbox:     p.Inbox,
		Deliverer: p.Deliverer,
		MailQueue: p.MailQueue,
		Identity:  p.Identity,
		Assets:    p.Assets,
		HTTP:      p.HTTP,
	}
}
