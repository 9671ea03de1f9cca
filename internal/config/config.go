// Package config loads the service configuration from defaults, an optional
// .env file, environment variables and command line flags, in that order of
// precedence, and validates the result.
package config

import (
	"encoding/base64"
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/shareride/internal/database"
)

// Config holds every tunable of the dashboard service.
type Config struct {
	RunAddr  string `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel string `env:"LOG_LEVEL" validate:"loglevel"`
	LogFile  string `env:"LOG_FILE"`

	DBDriver            string        `env:"DB_DRIVER" validate:"dbdriver"`
	DBHost              string        `env:"DB_HOST" validate:"required"`
	DBName              string        `env:"DB_NAME" validate:"required"`
	DBUser              string        `env:"DB_USER" validate:"required"`
	DBPassword          string        `env:"DB_PASS"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" validate:"gt=0"`

	SessionStore      string        `env:"SESSION_STORE" validate:"oneof=memory redis"`
	RedisAddr         string        `env:"REDIS_ADDR" validate:"hostname_port"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" validate:"gte=0,lte=15"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" validate:"required"`
	SessionSigningKey string        `env:"SESSION_SIGNING_KEY" validate:"base64url"`
	SessionTTL        time.Duration `env:"SESSION_TTL" validate:"gt=0"`

	LoginPath     string `env:"LOGIN_PATH" validate:"required"`
	TrustedSubnet string `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
}

var defaultConfig = Config{
	RunAddr:  ":8080",
	LogLevel: "info",
	LogFile:  "",

	DBDriver:            database.DriverMySQL,
	DBHost:              "localhost",
	DBName:              "221010123_shareride_db",
	DBUser:              "root",
	DBPassword:          "password",
	DBConnectionTimeout: 10 * time.Second,

	SessionStore:      "memory",
	RedisAddr:         "localhost:6379",
	RedisPassword:     "",
	RedisDB:           0,
	SessionCookieName: "shareride_session",
	SessionSigningKey: "c2hhcmVyaWRlLWRldmVsb3BtZW50LXNpZ25pbmcta2V5",
	SessionTTL:        24 * time.Hour,

	LoginPath:     "/login",
	TrustedSubnet: "",
}

var allowedLogLevels = []string{"debug", "info", "warn", "error", "fatal"}

// DBSettings returns the connection settings of the relational store.
func (c *Config) DBSettings() database.Settings {
	return database.Settings{
		Host:     c.DBHost,
		Name:     c.DBName,
		User:     c.DBUser,
		Password: c.DBPassword,
	}
}

// SigningKey decodes SessionSigningKey.
func (c *Config) SigningKey() ([]byte, error) {
	return base64.URLEncoding.DecodeString(c.SessionSigningKey)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	return funk.ContainsString(allowedLogLevels, fieldLevel.Field().String())
}

func validateDBDriver(fieldLevel validator.FieldLevel) bool {
	return funk.ContainsString(database.Drivers(), fieldLevel.Field().String())
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("dbdriver", validateDBDriver)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

// InitOption tunes New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips command line parsing, which tests need since
// the test binary owns os.Args.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// applyDefaults copies every zero-valued field of defaults into values.
// Empty strings count as unset, so DB_HOST="" behaves like a missing DB_HOST.
func applyDefaults(values *Config, defaults Config) {
	if values.RunAddr == "" {
		values.RunAddr = defaults.RunAddr
	}
	if values.LogLevel == "" {
		values.LogLevel = defaults.LogLevel
	}
	if values.LogFile == "" {
		values.LogFile = defaults.LogFile
	}
	if values.DBDriver == "" {
		values.DBDriver = defaults.DBDriver
	}
	if values.DBHost == "" {
		values.DBHost = defaults.DBHost
	}
	if values.DBName == "" {
		values.DBName = defaults.DBName
	}
	if values.DBUser == "" {
		values.DBUser = defaults.DBUser
	}
	if values.DBPassword == "" {
		values.DBPassword = defaults.DBPassword
	}
	if values.DBConnectionTimeout == 0 {
		values.DBConnectionTimeout = defaults.DBConnectionTimeout
	}
	if values.SessionStore == "" {
		values.SessionStore = defaults.SessionStore
	}
	if values.RedisAddr == "" {
		values.RedisAddr = defaults.RedisAddr
	}
	if values.RedisPassword == "" {
		values.RedisPassword = defaults.RedisPassword
	}
	if values.SessionCookieName == "" {
		values.SessionCookieName = defaults.SessionCookieName
	}
	if values.SessionSigningKey == "" {
		values.SessionSigningKey = defaults.SessionSigningKey
	}
	if values.SessionTTL == 0 {
		values.SessionTTL = defaults.SessionTTL
	}
	if values.LoginPath == "" {
		values.LoginPath = defaults.LoginPath
	}
	if values.TrustedSubnet == "" {
		values.TrustedSubnet = defaults.TrustedSubnet
	}
}

func parseFlags(values *Config) error {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run server")
	flags.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
	flags.StringVar(&values.TrustedSubnet, "t", values.TrustedSubnet, "CIDR allowed to read /metrics")

	return flags.Parse(os.Args[1:])
}

// New builds the configuration. Precedence, lowest first: built-in defaults,
// environment variables (a .env file feeds the environment), command line flags.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	err = env.Parse(values)
	if err != nil {
		return nil, err
	}
	applyDefaults(values, defaultConfig)

	if !options.disableFlagsParsing {
		if err := parseFlags(values); err != nil {
			return nil, err
		}
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
