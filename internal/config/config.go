package config

import (
	"errors"
	"flag"
	"os"
	"strings"

	configutil "github.com/NYCU-SDC/summer/pkg/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

var (
	ErrDatabaseURLRequired = errors.New("database_url is required")
	ErrInvalidStore        = errors.New("store must be postgres or memory")
)

type Config struct {
	Debug              bool     `yaml:"debug"                envconfig:"DEBUG"`
	Host               string   `yaml:"host"                 envconfig:"HOST"`
	Port               string   `yaml:"port"                 envconfig:"PORT"`
	BaseURL            string   `yaml:"base_url"             envconfig:"BASE_URL"`
	Store              string   `yaml:"store"                envconfig:"STORE"`
	DatabaseURL        string   `yaml:"database_url"         envconfig:"DATABASE_URL"`
	MigrationSource    string   `yaml:"migration_source"     envconfig:"MIGRATION_SOURCE"`
	OtelCollectorUrl   string   `yaml:"otel_collector_url"   envconfig:"OTEL_COLLECTOR_URL"`
	AllowOrigins       []string `yaml:"allow_origins"        envconfig:"ALLOW_ORIGINS"`
	GeminiAPIKey       string   `yaml:"gemini_api_key"       envconfig:"GEMINI_API_KEY"`
	GeminiModel        string   `yaml:"gemini_model"         envconfig:"GEMINI_MODEL"`
	CompanyContextPath string   `yaml:"company_context_path" envconfig:"COMPANY_CONTEXT_PATH"`
}

type LogBuffer struct {
	buffer []logEntry
}

type logEntry struct {
	msg  string
	err  error
	meta map[string]string
}

func NewConfigLogger() *LogBuffer {
	return &LogBuffer{}
}

func (cl *LogBuffer) Warn(msg string, err error, meta map[string]string) {
	cl.buffer = append(cl.buffer, logEntry{msg: msg, err: err, meta: meta})
}

func (cl *LogBuffer) FlushToZap(logger *zap.Logger) {
	for _, e := range cl.buffer {
		var fields []zap.Field
		if e.err != nil {
			fields = append(fields, zap.Error(e.err))
		}
		for k, v := range e.meta {
			fields = append(fields, zap.String(k, v))
		}
		logger.Warn(e.msg, fields...)
	}
	cl.buffer = nil
}

// Validate only requires a database when the postgres store is selected.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return ErrDatabaseURLRequired
		}
	case StoreMemory:
	default:
		return ErrInvalidStore
	}

	return nil
}

func Default() *Config {
	return &Config{
		Debug:              false,
		Host:               "localhost",
		Port:               "8080",
		Store:              StorePostgres,
		DatabaseURL:        "",
		MigrationSource:    "file://internal/database/migrations",
		OtelCollectorUrl:   "",
		AllowOrigins:       []string{"http://localhost:5173"},
		GeminiModel:        "gemini-flash-lite-latest",
		CompanyContextPath: "configs/company_context.yaml",
	}
}

func Load() (Config, *LogBuffer) {
	logger := NewConfigLogger()

	config := Default()

	var err error

	config, err = FromFile("config.yaml", config, logger)
	if err != nil {
		logger.Warn("Failed to load config from file", err, map[string]string{"path": "config.yaml"})
	}

	config, err = FromEnv(config, logger)
	if err != nil {
		logger.Warn("Failed to load config from env", err, map[string]string{"path": ".env"})
	}

	config, err = FromFlags(config)
	if err != nil {
		logger.Warn("Failed to load config from flags", err, map[string]string{"path": "flags"})
	}

	return *config, logger
}

func FromFile(filePath string, config *Config, logger *LogBuffer) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return config, err
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			logger.Warn("Failed to close config file", err, map[string]string{"path": filePath})
		}
	}(file)

	fileConfig := Config{}
	if err := yaml.NewDecoder(file).Decode(&fileConfig); err != nil {
		return config, err
	}

	return configutil.Merge[Config](config, &fileConfig)
}

func FromEnv(config *Config, logger *LogBuffer) (*Config, error) {
	if err := godotenv.Overload(); err != nil {
		if os.IsNotExist(err) {
			logger.Warn("No .env file found", err, map[string]string{"path": ".env"})
		} else {
			return nil, err
		}
	}

	envConfig := &Config{
		Debug:              os.Getenv("DEBUG") == "true",
		Host:               os.Getenv("HOST"),
		Port:               os.Getenv("PORT"),
		BaseURL:            os.Getenv("BASE_URL"),
		Store:              os.Getenv("STORE"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		MigrationSource:    os.Getenv("MIGRATION_SOURCE"),
		OtelCollectorUrl:   os.Getenv("OTEL_COLLECTOR_URL"),
		AllowOrigins:       splitList(os.Getenv("ALLOW_ORIGINS")),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        os.Getenv("GEMINI_MODEL"),
		CompanyContextPath: os.Getenv("COMPANY_CONTEXT_PATH"),
	}

	return configutil.Merge[Config](config, envConfig)
}

func FromFlags(config *Config) (*Config, error) {
	flagConfig := &Config{}

	flag.BoolVar(&flagConfig.Debug, "debug", false, "debug mode")
	flag.StringVar(&flagConfig.Host, "host", "", "host")
	flag.StringVar(&flagConfig.Port, "port", "", "port")
	flag.StringVar(&flagConfig.BaseURL, "base_url", "", "base url")
	flag.StringVar(&flagConfig.Store, "store", "", "store backend (postgres or memory)")
	flag.StringVar(&flagConfig.DatabaseURL, "database_url", "", "database url")
	flag.StringVar(&flagConfig.MigrationSource, "migration_source", "", "migration source")
	flag.StringVar(&flagConfig.OtelCollectorUrl, "otel_collector_url", "", "OpenTelemetry collector URL")
	flag.StringVar(&flagConfig.GeminiModel, "gemini_model", "", "Gemini model name")
	flag.StringVar(&flagConfig.CompanyContextPath, "company_context_path", "", "company context seed file")

	flag.Parse()

	return configutil.Merge[Config](config, flagConfig)
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
