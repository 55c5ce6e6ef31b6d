package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"nexus_server/adapter/in/worker"
	"nexus_server/adapter/out/llm"
	"nexus_server/adapter/out/persistence"
	"nexus_server/adapter/out/provider"
	"nexus_server/config"
	"nexus_server/core/domain"
	"nexus_server/core/port/out"
	"nexus_server/core/service/auth"
	"nexus_server/core/service/credential"
	"nexus_server/core/service/extraction"
	"nexus_server/core/service/feedback"
	"nexus_server/core/service/interview"
	"nexus_server/core/service/mailsync"
	"nexus_server/infra/database"
	"nexus_server/infra/middleware"
	"nexus_server/pkg/cache"
	"nexus_server/pkg/crypto"
	"nexus_server/pkg/httputil"
	"nexus_server/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const modelCatalogTTL = 6 * time.Hour

type Dependencies struct {
	Config *config.Config
	DB     *pgxpool.Pool
	SQLDB  *sqlx.DB
	Redis  *redis.Client

	// Repositories
	UserRepo      *persistence.UserAdapter
	InterviewRepo *persistence.InterviewAdapter
	SyncRunRepo   *persistence.SyncRunAdapter
	StateStore    out.OAuthStateStore

	// Providers
	Gmail    *provider.GmailAdapter
	Identity *provider.GoogleIdentity
	LLM      out.LanguageModel
	Model    domain.ModelSelection

	// Services
	Credentials      *credential.Store
	AuthService      *auth.Service
	InterviewService *interview.Service
	FeedbackService  *feedback.Analyzer
	SyncRunner       *mailsync.Runner

	Sessions   *middleware.Sessions
	WorkerPool *worker.Pool
}

// NewDependencies connects every backing service and wires the core.
// The returned cleanup releases them in reverse order.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	key, created, err := crypto.LoadOrCreateKey(cfg.EncryptionKeyFile)
	if err != nil {
		return fail(fmt.Errorf("encryption key: %w", err))
	}
	if created {
		logger.Warn("[Bootstrap] generated new encryption key at %s", cfg.EncryptionKeyFile)
	}
	cipher, err := crypto.NewEncryptor(key)
	if err != nil {
		return fail(fmt.Errorf("encryptor: %w", err))
	}

	// PostgreSQL
	pgCfg := database.DefaultPostgresConfig()
	sqlDB, err := database.NewSQLX(cfg.DatabaseURL, pgCfg)
	if err != nil {
		return fail(fmt.Errorf("connect postgres: %w", err))
	}
	closers = append(closers, func() { sqlDB.Close() })
	deps.SQLDB = sqlDB

	if err := database.Migrate(ctx, sqlDB.DB); err != nil {
		return fail(err)
	}

	pool, err := database.NewPostgres(ctx, cfg.DatabaseURL, pgCfg)
	if err != nil {
		return fail(fmt.Errorf("connect postgres pool: %w", err))
	}
	closers = append(closers, pool.Close)
	deps.DB = pool
	logger.Info("[Bootstrap] PostgreSQL connected")

	// Redis is optional; OAuth state falls back to memory.
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedis(ctx, cfg.RedisURL, nil)
		if err != nil {
			logger.WithError(err).Warn("[Bootstrap] Redis unavailable, OAuth state kept in memory")
		} else {
			closers = append(closers, func() { rdb.Close() })
			deps.Redis = rdb
			logger.Info("[Bootstrap] Redis connected")
		}
	}
	if deps.Redis != nil {
		deps.StateStore = persistence.NewRedisOAuthStateStore(deps.Redis)
	} else {
		deps.StateStore = persistence.NewMemoryOAuthStateStore()
	}

	deps.UserRepo = persistence.NewUserAdapter(sqlDB)
	deps.InterviewRepo = persistence.NewInterviewAdapter(sqlDB)
	deps.SyncRunRepo = persistence.NewSyncRunAdapter(sqlDB)

	gmailCfg := provider.DefaultGmailConfig()
	gmailCfg.HTTPClient = httputil.NewClient(httputil.GmailClientConfig(cfg.SyncWorkers))
	deps.Gmail = provider.NewGmailAdapter(gmailCfg)
	deps.Identity = provider.NewGoogleIdentity(&provider.GoogleIdentityConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})

	// Language model
	lm, err := llm.New(ctx, llm.Config{
		Provider:     cfg.LLMProvider,
		GoogleAPIKey: cfg.GoogleAPIKey,
		ProjectID:    cfg.GoogleCloudProject,
		Location:     cfg.GoogleCloudRegion,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	})
	if err != nil {
		return fail(fmt.Errorf("language model: %w", err))
	}
	if c, ok := lm.(io.Closer); ok {
		closers = append(closers, func() { c.Close() })
	}
	if deps.Redis != nil {
		lm = llm.NewCachedCatalog(lm, cache.NewRedisCache(deps.Redis, "nexus:llm:"), modelCatalogTTL)
	}
	deps.LLM = lm

	rules := extraction.RulesFor(lm.Provider()).WithOverrides(cfg.ModelPreferences, cfg.DefaultModel)
	deps.Model = extraction.SelectModel(ctx, lm, rules)
	logger.Info("[Bootstrap] %s model selected: %s (%s)", lm.Provider(), deps.Model.Name, deps.Model.Source)

	// Core services
	deps.Credentials = credential.NewStore(deps.UserRepo, cipher)
	deps.AuthService = auth.NewService(deps.Identity, deps.StateStore, deps.Credentials)
	deps.InterviewService = interview.NewService(deps.UserRepo, deps.InterviewRepo)
	deps.FeedbackService = feedback.NewAnalyzer(lm, deps.Model)

	orch := mailsync.NewOrchestrator(
		deps.Credentials,
		deps.Gmail,
		extraction.NewExtractor(lm, deps.Model),
		deps.InterviewRepo,
		mailsync.Options{Query: cfg.SyncQuery, MaxMessages: cfg.SyncMaxMessages},
	)
	deps.SyncRunner = mailsync.NewRunner(orch, deps.SyncRunRepo)

	handler := worker.NewHandler(worker.NewSyncProcessor(deps.SyncRunner))
	poolCfg := worker.DefaultPoolConfig()
	poolCfg.Workers = cfg.SyncWorkers
	poolCfg.JobTimeout = cfg.SyncTimeout
	deps.WorkerPool = worker.NewPool(handler, poolCfg, logger.Default().Zerolog())
	deps.SyncRunner.SetQueue(deps.WorkerPool)

	deps.Sessions = middleware.NewSessions(middleware.SessionConfig{
		Secret:     cfg.SecretKey,
		CookieName: cfg.SessionCookieName,
		MaxAge:     cfg.SessionMaxAge,
		Secure:     cfg.IsProduction(),
	})

	return deps, cleanup, nil
}
