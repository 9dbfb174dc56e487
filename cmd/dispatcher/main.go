package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lexhaven/reminder-gateway/internal/config"
	"github.com/lexhaven/reminder-gateway/internal/dispatch"
	"github.com/lexhaven/reminder-gateway/internal/mailer"
	"github.com/lexhaven/reminder-gateway/internal/repository"
	"github.com/lexhaven/reminder-gateway/internal/template"
	"github.com/lexhaven/reminder-gateway/pkg/logger"
	"github.com/lexhaven/reminder-gateway/pkg/pg"
	"github.com/lexhaven/reminder-gateway/pkg/prom"
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

	if !config.Get().DispatchEnabled {
		logger.Info("dispatch is disabled, nothing to do")
		return
	}

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

	scheduler := dispatch.NewScheduler(worker, dispatch.SchedulerConfig{
		PollInterval:    config.Get().DispatchPollInterval,
		WindowStartHour: config.Get().DispatchWindowStartHour,
		WindowEndHour:   config.Get().DispatchWindowEndHour,
		Timezone:        config.Get().DispatchTimezone,
	})

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	if config.Get().AppDebugMetricsAddr != "" {
		go func() {
			prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler.Start(ctx)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	select {
	case <-c:
		cancel()
		scheduler.Stop()
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
