package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/ledgerbook/portal/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultPlatformAddr = "http://localhost:3000"
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the portal service will be run
	ListenAddr string

	// Base URL of the booking platform API
	PlatformAddr string

	// Database to connect to
	// When empty the portal keeps sessions in memory
	DatabaseDSN string

	// Secret key
	// Session cookies are signed with symmetric encryption, so this key is used for that purpose
	SecretKey string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:     defaultLoggingLevel,
		ListenAddr:   defaultListenAddr,
		PlatformAddr: defaultPlatformAddr,
		Environment:  defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":      setString(&c.ListenAddr),
		"DATABASE_URI":     setString(&c.DatabaseDSN),
		"SECRET_KEY":       setString(&c.SecretKey),
		"LOG_LEVEL":        setString(&c.LogLevel),
		"PLATFORM_ADDRESS": setString(&c.PlatformAddr),
		"ENVIRONMENT":      setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("portal", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.PlatformAddr, "platform", "p", c.PlatformAddr, "Booking platform base URL")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
