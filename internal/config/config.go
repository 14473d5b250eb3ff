package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	HistorySQLite   = "sqlite"
	HistoryPostgres = "postgres"

	NotifierLog  = "log"
	NotifierSMTP = "smtp"
	NotifierNATS = "nats"
)

type Config struct {
	LogLevel         string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort         string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	CountdownSeconds int           `yaml:"countdown-seconds" env:"COUNTDOWN_SECONDS" env-default:"10"`
	StaticDir        string        `yaml:"static-dir" env:"STATIC_DIR" env-default:"./public"`
	RoomTTL          time.Duration `yaml:"room-ttl" env:"ROOM_TTL" env-default:"24h"`

	Redis      Redis      `yaml:"redis"`
	History    History    `yaml:"history"`
	Notifier   Notifier   `yaml:"notifier"`
	Dispatcher Dispatcher `yaml:"dispatcher"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type History struct {
	Driver      string `yaml:"driver" env:"HISTORY_DRIVER" env-default:"sqlite"`
	SQLitePath  string `yaml:"sqlite-path" env:"HISTORY_SQLITE_PATH" env-default:"./stonepaper.db"`
	PostgresDSN string `yaml:"postgres-dsn" env:"HISTORY_POSTGRES_DSN"`
}

type Notifier struct {
	Driver string `yaml:"driver" env:"NOTIFIER_DRIVER" env-default:"log"`
	SMTP   SMTP   `yaml:"smtp"`
	NATS   NATS   `yaml:"nats"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"25"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM" env-default:"noreply@stonepaper.local"`
}

type NATS struct {
	URL     string `yaml:"url" env:"NATS_URL" env-default:"nats://localhost:4222"`
	Subject string `yaml:"subject" env:"NATS_SUBJECT" env-default:"stonepaper.match.outcome"`
}

type Dispatcher struct {
	Workers     int           `yaml:"workers" env:"DISPATCHER_WORKERS" env-default:"2"`
	QueueSize   int           `yaml:"queue-size" env:"DISPATCHER_QUEUE_SIZE" env-default:"64"`
	TaskTimeout time.Duration `yaml:"task-timeout" env:"DISPATCHER_TASK_TIMEOUT" env-default:"10s"`
}

var (
	ErrUnknownHistoryDriver  = errors.New("unknown history driver")
	ErrUnknownNotifierDriver = errors.New("unknown notifier driver")
	ErrPostgresDSNMissing    = errors.New("postgres history needs a dsn")
)

// Load - reads .env (when present) into the environment, then config.yml with env overrides.
func Load(path, envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load env file: %w", err)
	}

	config := &Config{}
	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path, envPath string) *Config {
	config, err := Load(path, envPath)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	switch that.History.Driver {
	case HistorySQLite:
	case HistoryPostgres:
		if that.History.PostgresDSN == "" {
			return ErrPostgresDSNMissing
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownHistoryDriver, that.History.Driver)
	}

	switch that.Notifier.Driver {
	case NotifierLog, NotifierSMTP, NotifierNATS:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNotifierDriver, that.Notifier.Driver)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
