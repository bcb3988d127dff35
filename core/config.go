package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

type (
	Config struct {
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		WorkDir      string
		Storage      string   // one of StorageMemory, StoragePostgres, StorageMongo
		SeedCourses  []string // course YAML files loaded at startup by the memory storage

		Server   ServerConfig
		Database DatabaseConfig
		Mongo    MongoConfig
		Redis    RedisConfig
		Session  SessionConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	MongoConfig struct {
		URI      string
		Database string
	}

	// RedisConfig configures the course catalog cache. An empty Addr disables it.
	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		TTL      time.Duration
	}

	SessionConfig struct {
		IdleTimeout   time.Duration
		SweepInterval time.Duration
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

// NewConfig loads the configuration for the current ENV.
// Values are read from the environment (prefixed by ENV, eg. DEV_DEBUG) after loading
// config/.env.<env> if it exists.
func NewConfig() *Config {
	conf := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", env == "TEST")
	conf.SetDefault("build", "develop")
	conf.SetDefault("appName", "NxtWise")
	conf.SetDefault("secretKey", "x!9q2-ne7(wa$+lms=kd&uop4)c*z#vn8^$r2tb#yd")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("storage", StorageMemory)
	conf.SetDefault("server_host", "localhost")
	conf.SetDefault("server_address", ":8000")
	conf.SetDefault("server_debugHost", ":4000")
	conf.SetDefault("server_shutdownTimeout", 5*time.Second)
	conf.SetDefault("server_jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("db_engine", "postgres")
	conf.SetDefault("db_host", "localhost")
	conf.SetDefault("db_port", "5432")
	conf.SetDefault("db_name", "nxtwise")
	conf.SetDefault("db_user", "nxtwise")
	conf.SetDefault("db_password", "")
	conf.SetDefault("db_adminUser", "")
	conf.SetDefault("db_adminPassword", "")
	conf.SetDefault("db_disableTLS", false)
	conf.SetDefault("mongo_uri", "mongodb://localhost:27017")
	conf.SetDefault("mongo_database", "nxtwise")
	conf.SetDefault("redis_addr", "")
	conf.SetDefault("redis_password", "")
	conf.SetDefault("redis_db", 0)
	conf.SetDefault("redis_ttl", 10*time.Minute)
	conf.SetDefault("session_idleTimeout", 30*time.Minute)
	conf.SetDefault("session_sweepInterval", time.Minute)
	conf.SetDefault("seedCourses", []string{})

	conf.SetEnvPrefix(env)

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        conf.GetString("build"),
		AppName:      conf.GetString("appName"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		SecretKey:    conf.GetString("secretKey"),
		RollbarToken: conf.GetString("rollbarToken"),
		WorkDir:      workDir,
		Storage:      strings.ToLower(conf.GetString("storage")),
		SeedCourses:  conf.GetStringSlice("seedCourses"),
		Server: ServerConfig{
			Host:               conf.GetString("server_host"),
			Address:            conf.GetString("server_address"),
			DebugHost:          conf.GetString("server_debugHost"),
			ShutdownTimeout:    conf.GetDuration("server_shutdownTimeout"),
			JWTExpirationDelta: conf.GetDuration("server_jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("db_engine"),
			Host:          conf.GetString("db_host"),
			Port:          conf.GetString("db_port"),
			Name:          conf.GetString("db_name"),
			User:          conf.GetString("db_user"),
			Password:      conf.GetString("db_password"),
			AdminUser:     conf.GetString("db_adminUser"),
			AdminPassword: conf.GetString("db_adminPassword"),
			DisableTLS:    conf.GetBool("db_disableTLS"),
		},
		Mongo: MongoConfig{
			URI:      conf.GetString("mongo_uri"),
			Database: conf.GetString("mongo_database"),
		},
		Redis: RedisConfig{
			Addr:     conf.GetString("redis_addr"),
			Password: conf.GetString("redis_password"),
			DB:       conf.GetInt("redis_db"),
			TTL:      conf.GetDuration("redis_ttl"),
		},
		Session: SessionConfig{
			IdleTimeout:   conf.GetDuration("session_idleTimeout"),
			SweepInterval: conf.GetDuration("session_sweepInterval"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: in-memory storage, no rollbar, no cache.
func NewTestConfig() *Config {
	return &Config{
		Env:       "TEST",
		Build:     "test",
		AppName:   "NxtWise",
		TestMode:  true,
		SecretKey: "secret",
		Storage:   StorageMemory,
		Server: ServerConfig{
			Host:               "localhost",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: 10 * time.Minute,
		},
		Session: SessionConfig{IdleTimeout: time.Hour, SweepInterval: time.Minute},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("env=%s build=%s storage=%s debug=%t", c.Env, c.Build, c.Storage, c.Debug)
}
