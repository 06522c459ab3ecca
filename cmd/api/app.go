package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/booking-api/internal/config"
	"github.com/jwalitptl/booking-api/internal/email"
	appointmenthandler "github.com/jwalitptl/booking-api/internal/handler/appointment"
	authhandler "github.com/jwalitptl/booking-api/internal/handler/auth"
	bookinghandler "github.com/jwalitptl/booking-api/internal/handler/booking"
	doctorhandler "github.com/jwalitptl/booking-api/internal/handler/doctor"
	"github.com/jwalitptl/booking-api/internal/handler/health"
	profilehandler "github.com/jwalitptl/booking-api/internal/handler/profile"
	promhandler "github.com/jwalitptl/booking-api/internal/handler/prometheus"
	"github.com/jwalitptl/booking-api/internal/i18n"
	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/repository/postgres"
	redisrepo "github.com/jwalitptl/booking-api/internal/repository/redis"
	"github.com/jwalitptl/booking-api/internal/repository/seed"
	"github.com/jwalitptl/booking-api/internal/router"
	"github.com/jwalitptl/booking-api/internal/service/appointment"
	"github.com/jwalitptl/booking-api/internal/service/booking"
	"github.com/jwalitptl/booking-api/internal/service/directory"
	"github.com/jwalitptl/booking-api/internal/service/notification"
	"github.com/jwalitptl/booking-api/internal/service/profile"
	"github.com/jwalitptl/booking-api/internal/service/verification"
	"github.com/jwalitptl/booking-api/pkg/auth"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/messaging"
	redisbroker "github.com/jwalitptl/booking-api/pkg/messaging/redis"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/security"
)

// app owns every long lived dependency of the API process.
type app struct {
	router   *router.Router
	db       *sqlx.DB
	redis    *goredis.Client
	broker   messaging.Broker
	checks   []health.Check
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func (a *app) Close() {
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close broker")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}
}

func openDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	return postgres.NewDB(postgres.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Name:            cfg.Name,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	return redisbroker.NewClient(ctx, redisbroker.Config{
		URL:          cfg.URL,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		PoolSize:     cfg.PoolSize,
	})
}

// doctorSource opens the configured directory. db is nil for the in-memory
// source.
func doctorSource(cfg *config.Config, m *metrics.Metrics) (repository.DoctorRepository, *sqlx.DB, error) {
	if cfg.Directory.Source == "postgres" {
		db, err := openDB(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewDoctorRepository(db, m), db, nil
	}

	doctors, err := seed.Doctors()
	if err != nil {
		return nil, nil, err
	}
	repo, err := memory.NewDoctorRepository(doctors, cfg.Directory.Latency)
	if err != nil {
		return nil, nil, err
	}
	return repo, nil, nil
}

func newApp(ctx context.Context, cfg *config.Config, appLog *logger.Logger) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	a.metrics = metrics.NewMetrics(cfg.Metrics.Namespace, "api", a.registry)

	doctors, db, err := doctorSource(cfg, a.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to open doctor directory: %w", err)
	}
	a.db = db

	var appointments repository.AppointmentRepository = memory.NewAppointmentRepository()
	if db != nil {
		appointments = postgres.NewAppointmentRepository(db, a.metrics)
		a.checks = append(a.checks, health.Check{Name: "database", Ping: db.PingContext})
	}

	var codes repository.CodeStore = memory.NewCodeStore()
	if cfg.Redis.Enabled {
		client, err := openRedis(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		a.broker = redisbroker.NewRedisBroker(client, &log.Logger)
		codes = redisrepo.NewCodeStore(client, a.metrics)
		a.checks = append(a.checks, health.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	} else {
		a.broker = messaging.NewMemoryBroker()
	}

	notifier := notification.NewService(appLog, a.broker, a.metrics)
	tokens := auth.NewJWTService(auth.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	})
	appointmentSvc := appointment.NewService(appointments)

	bookingSvc := booking.NewService(booking.Dependencies{
		Doctors:      doctors,
		Appointments: appointmentSvc,
		Gateway: booking.NewGuardedGateway(
			booking.NewSimulatedGateway(cfg.Booking.PaymentDelay),
			cfg.Booking.BreakerFailures,
			cfg.Booking.BreakerCooldown,
		),
		Notifier: notifier,
		Broker:   a.broker,
		Metrics:  a.metrics,
		Logger:   appLog.WithFields(map[string]interface{}{"service": "booking"}),
	}, booking.Config{
		SessionTTL:      cfg.Booking.SessionTTL,
		CleanupInterval: cfg.Booking.CleanupInterval,
		PaymentTimeout:  cfg.Booking.PaymentTimeout,
	})

	verificationSvc := verification.NewService(verification.Dependencies{
		Accounts:   memory.NewAccountRepository(),
		Verifier:   newVerifier(cfg.Verification, codes),
		Dispatcher: newDispatcher(cfg, a.broker, appLog),
		Passwords:  security.NewBcryptHasher(cfg.Verification.BcryptCost),
		Tokens:     tokens,
		Notifier:   notifier,
		Metrics:    a.metrics,
		Logger:     appLog.WithFields(map[string]interface{}{"service": "verification"}),
	}, verification.Config{
		FlowTTL:         cfg.Verification.FlowTTL,
		CleanupInterval: cfg.Booking.CleanupInterval,
	})

	profileSvc := profile.NewService(memory.NewProfileRepository(), nil, notifier, appLog)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	}

	a.router = router.NewRouter(
		middleware.NewAuthMiddleware(tokens),
		router.Handlers{
			Health:      health.NewHandler(a.checks...),
			Doctor:      doctorhandler.NewHandler(directory.NewService(doctors)),
			Booking:     bookinghandler.NewHandler(bookingSvc),
			Auth:        authhandler.NewHandler(verificationSvc),
			Appointment: appointmenthandler.NewHandler(appointmentSvc),
			Profile:     profilehandler.NewHandler(profileSvc),
		},
		promhandler.New(a.registry),
		i18n.NewBundle(),
		router.RouterConfig{
			Mode:           cfg.Server.Mode,
			RateLimit:      rate.Limit(cfg.RateLimit.RPS),
			RateBurst:      cfg.RateLimit.Burst,
			RequestTimeout: cfg.Server.RequestTimeout,
			MaxBodySize:    cfg.Server.MaxBodyBytes,
			CORSConfig:     corsConfig,
		},
	)
	a.router.Setup()
	return a, nil
}

func newVerifier(cfg config.VerificationConfig, codes repository.CodeStore) verification.CodeVerifier {
	if cfg.Verifier == "stored" {
		return verification.NewStoredCodeVerifier(codes, security.NewCodeHasher(cfg.BcryptCost), cfg.CodeTTL)
	}
	return verification.NewLengthOnlyVerifier()
}

func newDispatcher(cfg *config.Config, broker messaging.Broker, appLog *logger.Logger) verification.CodeDispatcher {
	logDispatcher := verification.NewLogDispatcher(appLog)
	switch cfg.Verification.Dispatcher {
	case "email":
		mailer := email.NewService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		return verification.NewEmailDispatcher(mailer, logDispatcher)
	case "broker":
		return verification.NewBrokerDispatcher(broker)
	default:
		return logDispatcher
	}
}
