package daemon

import (
	"context"

	"github.com/matheus3301/crmchat/internal/api"
	"github.com/matheus3301/crmchat/internal/bus"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/config"
	"github.com/matheus3301/crmchat/internal/controller"
	"github.com/matheus3301/crmchat/internal/lock"
	"github.com/matheus3301/crmchat/internal/logging"
	"github.com/matheus3301/crmchat/internal/outbox"
	"github.com/matheus3301/crmchat/internal/profile"
	"github.com/matheus3301/crmchat/internal/rest"
	"github.com/matheus3301/crmchat/internal/schedule"
	"github.com/matheus3301/crmchat/internal/status"
	"github.com/matheus3301/crmchat/internal/store"
	"github.com/matheus3301/crmchat/internal/transport"
	"github.com/matheus3301/crmchat/internal/unread"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile    string
	SocketPath string // optional override for testing; empty = use default
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideSettings,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideRest,
			provideTransport,
			provideQueue,
			provideController,
			provideSender,
			provideScheduler,
			provideService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.Profile), p.Profile)
}

func provideSettings(p Params, logger *zap.Logger) (*config.Settings, error) {
	s, err := profile.Settings(p.Profile)
	if err != nil {
		return nil, err
	}
	logger.Info("settings resolved",
		zap.String("socket_url", s.SocketURL),
		zap.String("api_base_url", s.APIBaseURL),
		zap.String("user_id", s.UserID),
		zap.Int("chunk_size", s.ChunkSize),
	)
	return s, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideStore depends on the lock so a second daemon never touches the database.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.Profile)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideRest(s *config.Settings) *rest.Client {
	return rest.New(rest.Options{
		BaseURL:     s.APIBaseURL,
		FileBaseURL: s.FileBaseURL,
		Token:       s.Token,
		UserID:      s.UserID,
	})
}

func provideTransport(s *config.Settings, m *status.Machine, logger *zap.Logger) *transport.Client {
	return transport.NewClient(transport.Options{
		URL:             s.SocketURL,
		Token:           s.Token,
		UserID:          s.UserID,
		RegisterEvent:   chat.EventRegister,
		InitialInterval: s.ReconnectInitial,
		MaxInterval:     s.ReconnectMax,
	}, m, logger.Named("transport"))
}

func provideQueue(db *store.DB, b *bus.Bus, logger *zap.Logger) *outbox.Queue {
	return outbox.NewQueue(db, b, logger)
}

func provideController(s *config.Settings, ch *transport.Client, rc *rest.Client, db *store.DB, q *outbox.Queue, b *bus.Bus, logger *zap.Logger) *controller.Controller {
	log := logger.Named("controller")
	return controller.New(controller.Options{
		Self:      s.UserID,
		SelfName:  s.UserName,
		Channel:   ch,
		Directory: rc,
		Unread:    rc,
		Badge: unread.BadgeFunc(func() {
			log.Debug("badge refresh")
		}),
		Archive:   db,
		Outbox:    q,
		Bus:       b,
		Logger:    log,
		ChunkSize: s.ChunkSize,
	})
}

func provideSender(db *store.DB, ctrl *controller.Controller, b *bus.Bus, m *status.Machine, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(db, ctrl, b, m, logger.Named("outbox"))
}

func provideScheduler(s *config.Settings, ctrl *controller.Controller, logger *zap.Logger) *schedule.Manager {
	return schedule.NewManager(ctrl, s.RefreshSchedule, logger.Named("schedule"))
}

func provideService(p Params, s *config.Settings, m *status.Machine, ctrl *controller.Controller, db *store.DB, rc *rest.Client, b *bus.Bus, logger *zap.Logger) *api.Service {
	return api.NewService(api.Deps{
		Profile:     p.Profile,
		UserID:      s.UserID,
		DownloadDir: profile.DownloadDir(p.Profile),
		Machine:     m,
		Controller:  ctrl,
		DB:          db,
		Files:       rc,
		Bus:         b,
		Logger:      logger.Named("api"),
	})
}

type lifecycleParams struct {
	fx.In

	Server     *Server
	Lock       *lock.Lock
	DB         *store.DB
	Transport  *transport.Client
	Controller *controller.Controller
	Sender     *outbox.Sender
	Scheduler  *schedule.Manager
	Logger     *zap.Logger
}

func registerLifecycle(lc fx.Lifecycle, p lifecycleParams) {
	logger := p.Logger
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())

			// Subscribe before connecting so the first connect event is seen.
			p.Controller.Start()
			p.Transport.Start(ctx)
			p.Sender.Start(ctx)

			if err := p.Scheduler.RegisterJobs(); err != nil {
				cancel()
				return err
			}
			p.Scheduler.Start()

			go func() {
				if err := p.Server.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			go func() {
				if err := p.Controller.RefreshDirectory(ctx); err != nil {
					logger.Warn("initial directory refresh failed", zap.Error(err))
				}
				if err := p.Controller.ResyncUnread(ctx); err != nil {
					logger.Warn("initial unread resync failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Server.Stop(ctx)
			p.Scheduler.Stop()
			p.Sender.Stop()
			if cancel != nil {
				cancel()
			}
			p.Transport.Stop()
			p.Controller.Stop()
			if err := p.DB.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := p.Lock.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
