package main

import (
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/lexhaven/reminder-gateway/internal/config"
	"github.com/lexhaven/reminder-gateway/internal/dispatch"
	"github.com/lexhaven/reminder-gateway/internal/handlers"
	"github.com/lexhaven/reminder-gateway/internal/mailer"
	"github.com/lexhaven/reminder-gateway/internal/repository"
	"github.com/lexhaven/reminder-gateway/internal/services"
	"github.com/lexhaven/reminder-gateway/internal/template"
	xhttp "github.com/lexhaven/reminder-gateway/pkg/http"
	"github.com/lexhaven/reminder-gateway/pkg/logger"
	"github.com/lexhaven/reminder-gateway/pkg/pg"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	reminderRepo := repository.NewReminderRepository(db)

	registry := template.NewRegistry(config.Get().SenderOrgName, config.Get().TemplateOverrides)

	// The manual dispatch endpoint drives the same worker the scheduler
	// process runs; a mailer is only needed when deliveries are real.
	var mail dispatch.Mailer
	if config.Get().MailerURL != "" {
		client, err := mailer.NewClient(mailer.Config{
			BaseURL: config.Get().MailerURL,
			APIKey:  config.Get().MailerAPIKey,
			Timeout: config.Get().MailerTimeout,
		})
		if err != nil {
			logger.Error("failed to create mailer client", "error", err)
			return
		}
		mail = client
	} else if !config.Get().DispatchDryRun {
		logger.Error("MAILER_URL is required unless DISPATCH_DRY_RUN is set")
		return
	}

	worker := dispatch.NewWorker(reminderRepo, registry, mail, dispatch.WorkerConfig{
		Enabled:   config.Get().DispatchEnabled,
		DryRun:    config.Get().DispatchDryRun,
		BatchSize: config.Get().DispatchBatchSize,
	})

	// services
	reminderService := services.NewReminderService(reminderRepo, registry, worker)
	healthService := services.NewHealthService()

	// v1 handlers
	reminderHandler := handlers.NewReminderHandler(reminderService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterReminderRoutes(g, reminderHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	// Create new server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
