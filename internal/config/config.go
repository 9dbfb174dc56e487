package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/lexhaven/reminder-gateway/pkg/logger"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every env-sourced value used by the reminder gateway.
// Only this struct must be used to hold configuration values, no direct
// access to env, ini or any other config source should be made.
type Config struct {
	AppEnv              string `env:"APP_ENV" default:"dev"`
	AppName             string `env:"APP_NAME" default:"reminder_gateway"`
	AppDebug            bool   `env:"APP_DEBUG" default:"1"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI"`

	HttpListenAddr            string `env:"HTTP_LISTEN_ADDR" validation:"mustExists"`
	HttpServerReadTimeout     int    `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout    int    `env:"HTTP_SERVER_WRITE_TIMEOUT"`
	HttpServerReadBufferSize  int    `env:"HTTP_SERVER_READ_BUFFER_SIZE"`
	HttpServerWriteBufferSize int    `env:"HTTP_SERVER_WRITE_BUFFER_SIZE"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	LogLevel []string `env:"LOG_LEVEL"`

	// Dispatch controls the scheduler and worker. The send window is a
	// local-time interval [start, end) in the configured timezone.
	DispatchEnabled         bool          `env:"DISPATCH_ENABLED" default:"1"`
	DispatchDryRun          bool          `env:"DISPATCH_DRY_RUN" default:"0"`
	DispatchBatchSize       int           `env:"DISPATCH_BATCH_SIZE" default:"25"`
	DispatchPollInterval    time.Duration `env:"DISPATCH_POLL_INTERVAL" default:"5m"`
	DispatchWindowStartHour int           `env:"DISPATCH_WINDOW_START_HOUR" default:"7"`
	DispatchWindowEndHour   int           `env:"DISPATCH_WINDOW_END_HOUR" default:"21"`
	DispatchTimezone        string        `env:"DISPATCH_TIMEZONE" default:"UTC"`

	SenderOrgName string `env:"SENDER_ORG_NAME" default:"Lexhaven Legal"`

	// TemplateOverrides is a JSON list of {key,label,description,subject,body}
	// merged over the built-in templates at startup.
	TemplateOverrides string `env:"TEMPLATE_OVERRIDES"`

	MailerURL     string        `env:"MAILER_URL"`
	MailerAPIKey  string        `env:"MAILER_API_KEY"`
	MailerTimeout time.Duration `env:"MAILER_TIMEOUT" default:"10s"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
