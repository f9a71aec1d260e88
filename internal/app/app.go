package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"reddot/internal/auth"
	"reddot/internal/config"
	"reddot/internal/httpserver"
	"reddot/internal/httpserver/deps"
	"reddot/internal/logger"
	"reddot/internal/notify"
	"reddot/internal/redis"
	"reddot/internal/scheduler"
	"reddot/internal/service"
	"reddot/internal/store"
	"reddot/internal/store/redisstore"
	"reddot/internal/store/sqlite"
	"reddot/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	db          *sqlite.DB
	redisClient *goredis.Client
	janitor     *scheduler.TokenJanitor
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	db, err := sqlite.Open(cfg.DBPath, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open sqlite: %v", err)
		os.Exit(1)
	}
	st := db.Stores()

	// When Redis is configured, tokens and delete-request markers move
	// there; the content system of record stays in sqlite either way.
	var redisClient *goredis.Client
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		st.Tokens = redisstore.NewTokens(redisClient)
		st.Deletions = redisstore.NewDeletions(redisClient)
		loggerClient.Info("Redis initialized, tokens and delete markers moved to Redis")
	}

	catalog, err := notify.LoadCatalog(cfg.MailTemplate)
	if err != nil {
		loggerClient.Errorf("Failed to load mail templates: %v", err)
		os.Exit(1)
	}
	mailer := notify.NewMailer(notify.NewSMTP(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}), catalog, loggerClient, cfg.SMTPTimeout)

	sessions := auth.NewSessions([]byte(cfg.SessionSecret), cfg.SessionTTL, nil)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	content := service.NewContent(st, loggerClient, nil)
	tokens := service.NewTokens(st, service.TokenConfig{
		ConfirmTTL: cfg.ConfirmTokenTTL,
		RecoverTTL: cfg.RecoverTokenTTL,
	}, loggerClient, nil)
	accounts := service.NewAccounts(st, tokens, hasher, mailer, loggerClient, cfg.BaseURL, nil)

	// The janitor only runs where tokens lack native expiry; Redis
	// evicts them by TTL on its own.
	var janitor *scheduler.TokenJanitor
	if pruner, ok := st.Tokens.(store.TokenPruner); ok {
		janitor = scheduler.NewTokenJanitor(pruner, loggerClient, cfg.TokenGCInterval, scheduler.DefaultRetention)
	}

	d := deps.Deps{
		Logger:     loggerClient,
		StartTime:  time.Now(),
		Version:    version.Version,
		Commit:     version.Commit,
		BuildDate:  version.BuildDate,
		GoVersion:  version.GoVersion,
		Store:      st,
		Content:    content,
		Accounts:   accounts,
		Sessions:   sessions,
		TrustProxy: cfg.TrustProxy,
		ReadyCheck: func(ctx context.Context) error {
			if redisClient != nil {
				if err := redisClient.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			return nil
		},
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		db:          db,
		redisClient: redisClient,
		janitor:     janitor,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Reddot v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Reddot %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.janitor != nil {
		if err := a.janitor.Start(ctx); err != nil {
			return fmt.Errorf("failed to start token janitor: %w", err)
		}
		a.logger.Info("token janitor started",
			logger.Duration("interval", a.cfg.TokenGCInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.janitor != nil {
		a.janitor.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.Warnf("failed to close sqlite: %v", err)
	}

	a.logger.Info("✅ Reddot stopped cleanly")
	return nil
}
