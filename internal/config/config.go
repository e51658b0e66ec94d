// Package config loads the relay configuration from the environment.
// A local .env file is honoured when present.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// GreetingFrame is sent to every new connection, and only to it.
const GreetingFrame = "hello from server"

// Config holds every runtime setting of the relay and the admin CLI.
type Config struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT,default=8080" validate:"gt=0,lte=65535"`

	DBDriver   string `env:"DB_DRIVER,default=pgx" validate:"oneof=pgx postgres"`
	DBHost     string `env:"DB_HOST,default=localhost"`
	DBPort     int    `env:"DB_PORT,default=5432"`
	DBUser     string `env:"DB_USER,default=user"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME,required=true"`
	DBSSLMode  string `env:"DB_SSLMODE,default=disable"`

	// RedisAddr enables cross-instance fan-out. Empty means single-instance mode.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	// JWTSecret, when set, makes room sockets require a token issued by /token.
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=72h"`

	SendBufferSize  int           `env:"SEND_BUFFER_SIZE,default=256" validate:"gt=0"`
	PersistTimeout  time.Duration `env:"PERSIST_TIMEOUT,default=10s" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=15s" validate:"gt=0"`
}

// Load reads .env (if any) and binds the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: no .env file loaded, using process environment")
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return cfg, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN builds the PostgreSQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}
