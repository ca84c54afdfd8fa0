package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/praxishq/praxis/internal/application/authz"
	"github.com/praxishq/praxis/internal/application/impersonation"
	"github.com/praxishq/praxis/internal/application/invitation"
	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/application/retention"
	"github.com/praxishq/praxis/internal/application/useradmin"
	"github.com/praxishq/praxis/internal/config"
	auditsink "github.com/praxishq/praxis/internal/infrastructure/audit"
	infraauth "github.com/praxishq/praxis/internal/infrastructure/auth"
	httprouter "github.com/praxishq/praxis/internal/infrastructure/http"
	"github.com/praxishq/praxis/internal/infrastructure/http/handlers"
	"github.com/praxishq/praxis/internal/infrastructure/http/middleware"
	"github.com/praxishq/praxis/internal/infrastructure/persistence/postgres"
	"github.com/praxishq/praxis/internal/infrastructure/queue"
	"github.com/praxishq/praxis/internal/infrastructure/security"
	"github.com/praxishq/praxis/internal/infrastructure/session"
	"github.com/praxishq/praxis/internal/infrastructure/webhook"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	healthHandler := handlers.NewHealthHandler(pool, redisClient)

	userRepo := postgres.NewUserRepository(pool)
	orgRepo := postgres.NewOrganizationRepository(pool)
	membershipRepo := postgres.NewMembershipRepository(pool)
	invitationRepo := postgres.NewInvitationRepository(pool)
	auditRepo := postgres.NewAuditLogRepository(pool)

	var taskEnqueuer ports.TaskEnqueuer
	var asynqWorker *queue.Worker
	var auditEmitter ports.WebhookEmitter = webhook.NewNoopEmitter()
	if cfg.Audit.WebhookURL != "" {
		auditEmitter = webhook.NewHTTPEmitter(cfg.Audit.WebhookURL)
	}
	if redisClient != nil {
		redisOpt, _ := redis.ParseURL(cfg.Redis.URL)
		asynqOpt := asynq.RedisClientOpt{Addr: redisOpt.Addr, Password: redisOpt.Password, DB: redisOpt.DB}
		asynqEnq, err := queue.NewAsynqEnqueuer(asynqOpt, log)
		if err != nil {
			log.Fatal().Err(err).Msg("create asynq enqueuer")
		}
		defer asynqEnq.Close()
		taskEnqueuer = asynqEnq
		asynqWorker = queue.NewWorker(asynqOpt, auditEmitter, log)
		go func() {
			if err := asynqWorker.Run(); err != nil {
				log.Warn().Err(err).Msg("asynq worker stopped")
			}
		}()
	} else {
		taskEnqueuer = queue.NewNoopEnqueuer()
	}

	hasher := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  16,
		KeyLength:   32,
	})

	pemBytes, err := cfg.LoadJWTPrivateKey()
	if err != nil {
		log.Fatal().Err(err).Msg("load JWT private key")
	}
	privateKey, err := infraauth.LoadRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("parse JWT private key")
	}
	issuer := infraauth.NewTokenIssuer(privateKey, cfg.JWT.Issuer, cfg.JWT.Audience)

	var sessionStore ports.ImpersonationStore
	if redisClient != nil {
		sessionStore = session.NewRedisStore(redisClient, 12*time.Hour)
	} else {
		sessionStore = session.NewMemoryStore()
	}

	sink := auditsink.NewSink(auditRepo, taskEnqueuer, log)
	scope := authz.NewScopeFilter(orgRepo, membershipRepo)
	impersonationMgr := impersonation.NewManager(sessionStore, userRepo, membershipRepo, sink, log)
	invitationSvc := invitation.NewLifecycle(invitationRepo, orgRepo, membershipRepo, taskEnqueuer, sink, cfg.Invite.BaseURL, log)
	userAdmin := useradmin.NewService(userRepo, orgRepo, membershipRepo, hasher, sink, log)

	janitor := retention.NewJanitor(auditRepo, cfg.Audit.RetentionDays, time.Hour, log)
	janitor.Start()
	defer janitor.Stop()

	ipLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.RatePerIP)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	actorLimit, err := middleware.NewActorRateLimiter(cfg.RateLimit.RatePerIP)
	if err != nil {
		log.Fatal().Err(err).Msg("create actor rate limiter")
	}
	secureMiddleware := middleware.NewSecure(middleware.SecureOptions(cfg.Secure.IsDevelopment))
	requireJWT := middleware.NewAuthValidator(issuer).Handler

	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:          handlers.NewAuthHandler(userRepo, membershipRepo, hasher, issuer, cfg.JWT.AccessExpiry, log),
		HealthHandler:        healthHandler,
		UsersHandler:         handlers.NewUsersHandler(userAdmin, scope),
		OrganizationsHandler: handlers.NewOrganizationsHandler(orgRepo, scope),
		InvitationsHandler:   handlers.NewInvitationsHandler(invitationSvc, scope),
		ImpersonationHandler: handlers.NewImpersonationHandler(impersonationMgr, issuer, cfg.JWT.AccessExpiry),
		RequireJWT:           requireJWT,
		CORSAllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		APIVersion:           "v1",
		Log:                  log,
		Secure:               secureMiddleware,
		IPRateLimit:          ipLimit,
		ActorRateLimit:       actorLimit,
		Metrics:              true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if asynqWorker != nil {
		asynqWorker.Shutdown()
	}
	log.Info().Msg("server stopped")
}
