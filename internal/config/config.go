package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	Store   StoreConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	CallLog CallLogConfig
}

type AppConfig struct {
	Env  string
	Port int
	// DeviceID is the device whose call history this process serves.
	// Tokens for any other device are rejected.
	DeviceID string
}

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type StoreConfig struct {
	// Driver is sqlite (device-local file, default) or postgres.
	Driver     string
	SQLitePath string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// MinSlotTTL is the shortest lease the Redis slot accepts.
const MinSlotTTL = time.Second

// RedisConfig is optional. When Host is set the single-flight slot is shared
// across processes through Redis.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	SlotTTL  time.Duration
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type CallLogConfig struct {
	// Region is the upper-case region code used to normalize numbers. Empty disables normalization.
	Region            string
	EnrichConcurrency int
	ExecTimeout       time.Duration
	AuditCapacity     int
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.DeviceID = strings.TrimSpace(os.Getenv("DEVICE_ID"))

	c.Store.Driver = strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	c.Store.SQLitePath = strings.TrimSpace(os.Getenv("SQLITE_PATH"))

	if c.Store.Driver == DriverPostgres {
		c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
		{
			n, err := mustInt("DB_PORT")
			n, parseErrs = appendParseErr(parseErrs, n, err)
			c.DB.Port = n
		}
		c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
		c.DB.Password = os.Getenv("DB_PASSWORD")
		c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
		c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	}

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
		c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	{
		d, err := optionalDuration("SLOT_TTL")
		parseErrs = appendErr(parseErrs, err)
		c.Redis.SlotTTL = d
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate() based on env.
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")

	c.CallLog.Region = strings.ToUpper(strings.TrimSpace(os.Getenv("REGION_CODE")))
	{
		n, err := optionalInt("ENRICH_CONCURRENCY")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.CallLog.EnrichConcurrency = n
	}
	{
		d, err := optionalDuration("EXEC_TIMEOUT")
		parseErrs = appendErr(parseErrs, err)
		c.CallLog.ExecTimeout = d
	}
	{
		n, err := optionalInt("AUDIT_CAPACITY")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.CallLog.AuditCapacity = n
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every problem at once and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.IsProduction() && c.App.DeviceID == "" {
		errs = append(errs, errors.New("DEVICE_ID is required in production"))
	}

	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when STORE_DRIVER=sqlite"))
		}
	case DriverPostgres:
		errs = append(errs, c.validateDB()...)
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of sqlite, postgres, got %q", c.Store.Driver))
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}
	switch {
	case c.Redis.SlotTTL <= 0:
		c.Redis.SlotTTL = 2 * time.Minute
	case c.Redis.SlotTTL < MinSlotTTL:
		errs = append(errs, fmt.Errorf("SLOT_TTL must be at least %s, got %s", MinSlotTTL, c.Redis.SlotTTL))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if c.Auth.AccessTokenTTL <= 0 {
		// Default: short-lived access tokens.
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		// Default: longer-lived refresh tokens.
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.CallLog.Region != "" && !isRegionCode(c.CallLog.Region) {
		errs = append(errs, fmt.Errorf("REGION_CODE must be a two-letter region code, got %q", c.CallLog.Region))
	}
	switch {
	case c.CallLog.EnrichConcurrency == 0:
		c.CallLog.EnrichConcurrency = 4
	case c.CallLog.EnrichConcurrency < 0:
		errs = append(errs, fmt.Errorf("ENRICH_CONCURRENCY must be positive, got %d", c.CallLog.EnrichConcurrency))
	}
	if c.CallLog.ExecTimeout <= 0 {
		c.CallLog.ExecTimeout = 30 * time.Second
	}
	switch {
	case c.CallLog.AuditCapacity == 0:
		c.CallLog.AuditCapacity = 1000
	case c.CallLog.AuditCapacity < 0:
		errs = append(errs, fmt.Errorf("AUDIT_CAPACITY must be positive, got %d", c.CallLog.AuditCapacity))
	}

	return joinErrors(errs)
}

func (c *Config) validateDB() []error {
	var errs []error
	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

// RedisEnabled reports whether the cross-process slot is configured.
func (c Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) (int, error) {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return 0, nil
	}
	return mustInt(key)
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func optionalDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	return d, nil
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		errs = append(errs, err)
	}
	return errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func isRegionCode(v string) bool {
	if len(v) != 2 {
		return false
	}
	for _, r := range v {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
