package main

import (
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/PranayGaynarIKF/Address-Book-sub002/config"
	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/repositories/contact"
	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/repositories/contactowner"
	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/repositories/contacttag"
	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/repositories/mergehistory"
	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/repositories/owner"
	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/repositories/tag"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/consolidation"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/contacts"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/events"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/ledger"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/middleware"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/relationships"
	contactroutes "github.com/PranayGaynarIKF/Address-Book-sub002/pkg/routes/contact"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/routes/health"
	mergeroutes "github.com/PranayGaynarIKF/Address-Book-sub002/pkg/routes/mergehistory"
	ownerroutes "github.com/PranayGaynarIKF/Address-Book-sub002/pkg/routes/owner"
	tagroutes "github.com/PranayGaynarIKF/Address-Book-sub002/pkg/routes/tag"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/scoring"
)

type services struct {
	contacts      *contacts.Service
	relationships *relationships.Service
	ledger        *ledger.Service
	consolidation *consolidation.Service
}

func connectionConfig(cfg *config.Config) database.ConnectionConfig {
	return database.ConnectionConfig{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}
}

// scoringPolicy builds the policy from config, then overlays the policy file
// when one is configured.
func scoringPolicy(cfg *config.Config) (*scoring.Policy, error) {
	trusted, err := models.ParseSourceSystems(cfg.TrustedSources)
	if err != nil {
		return nil, err
	}
	policy := scoring.NewPolicy(trusted, cfg.UnknownCompany)
	if cfg.ScoringPolicyFile == "" {
		return policy, nil
	}
	return scoring.LoadPolicy(cfg.ScoringPolicyFile, policy)
}

func newServices(cfg *config.Config, logger ectologger.Logger, db database.DB, policy *scoring.Policy) (*services, error) {
	emailSources, err := models.ParseSourceSystems(cfg.EmailSourceSystems)
	if err != nil {
		return nil, err
	}

	tx := database.NewTxRunner(db, logger)
	contactRepo := contact.NewRepository(db, logger)
	contactOwnerRepo := contactowner.NewRepository(db, logger)

	contactSvc := contacts.NewService(logger, contactRepo, contactOwnerRepo, policy, tx, contacts.Config{
		MaxPageSize: cfg.MaxPageSize,
	})
	relationshipSvc := relationships.NewService(
		logger,
		contactRepo,
		owner.NewRepository(db, logger),
		tag.NewRepository(db, logger),
		contactOwnerRepo,
		contacttag.NewRepository(db, logger),
		tx,
		relationships.Config{
			DefaultTagColor: cfg.DefaultTagColor,
			MaxPageSize:     cfg.MaxPageSize,
		},
	)
	ledgerSvc := ledger.NewService(logger, mergehistory.NewRepository(db, logger), tx, ledger.Config{
		SystemActor:        cfg.SystemActor,
		EmailSourceSystems: emailSources,
		MaxPageSize:        cfg.MaxPageSize,
	})
	consolidationSvc := consolidation.NewService(
		logger,
		contactSvc,
		relationshipSvc,
		ledger.NewBestEffort(ledgerSvc, logger),
		tx,
		policy.UnknownCompany(),
	)

	return &services{
		contacts:      contactSvc,
		relationships: relationshipSvc,
		ledger:        ledgerSvc,
		consolidation: consolidationSvc,
	}, nil
}

func newEcho(cfg *config.Config, logger ectologger.Logger, svc *services, emitter *events.Emitter, checker *health.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(
		echomiddleware.Recover(),
		otelecho.Middleware(cfg.AppName),
		middleware.Context(),
		middleware.Metrics(),
		middleware.Logger(logger),
		echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: cfg.AllowMethods,
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderXRequestID, middleware.HeaderActor},
		}),
	)

	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	contactroutes.NewHandler(svc.contacts, svc.consolidation, svc.relationships, emitter, cfg.DefaultPageSize).
		Register(api.Group("/contacts"))
	ownerroutes.NewHandler(svc.relationships).Register(api.Group("/owners"))
	tagroutes.NewHandler(svc.relationships, emitter).Register(api.Group("/tags"))
	mergeroutes.NewHandler(svc.ledger, cfg.DefaultPageSize).Register(api.Group("/merge-history"))

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes
	return e
}
