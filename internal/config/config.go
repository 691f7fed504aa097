package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"reflect"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

// Natal-RN, Brazil.
const (
	DefaultLatitude  = -5.79
	DefaultLongitude = -35.21
)

// minStatementTimeout is the smallest accepted DB_STATEMENT_TIMEOUT.
const minStatementTimeout = time.Second

// Load modes. Row mode commits each insert on its own; batch mode wraps the
// whole forecast in one transaction.
const (
	LoadModeRow   = "row"
	LoadModeBatch = "batch"
)

// Config holds all service settings.
type Config struct {
	WeatherAPIKey  string
	WeatherBaseURL string
	Latitude       float64
	Longitude      float64
	Location       *time.Location
	HTTPTimeout    time.Duration

	Database DatabaseConfig
	LoadMode string

	// ScheduleInterval of zero runs the pipeline once and exits.
	ScheduleInterval time.Duration
	HTTPAddr         string

	// Kafka publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// DatabaseConfig describes the Postgres sink. The mapstructure tags match the
// keys of a db_config.json document.
type DatabaseConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Name             string        `mapstructure:"database"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	SSLMode          string        `mapstructure:"sslmode"`
	MaxConns         int32         `mapstructure:"max_conns"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// ConnString renders a postgres:// URL for pgx.
func (d DatabaseConfig) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	if d.MaxConns > 0 {
		q.Set("pool_max_conns", strconv.Itoa(int(d.MaxConns)))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type secretsDocument struct {
	WeatherAPIKey string `mapstructure:"WEATHER_API_KEY"`
}

// LoadFromEnv reads configuration from the process environment, falling back
// to the dotenv file at envFile. A missing file is not an error.
func LoadFromEnv(envFile string) (*Config, error) {
	dotenv, err := readDotenv(envFile)
	if err != nil {
		return nil, err
	}
	return Load(Chain{EnvProvider{}, dotenv})
}

// Load builds a Config from p, applying defaults where keys are unset.
// SECRETS_FILE and DB_CONFIG_FILE name optional JSON documents; keys set
// directly in p take precedence over the documents.
func Load(p Provider) (*Config, error) {
	cfg := &Config{
		WeatherBaseURL: getOr(p, "WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		LoadMode:       getOr(p, "LOAD_MODE", LoadModeRow),
		HTTPAddr:       getOr(p, "HTTP_ADDR", ":8080"),
		KafkaTopic:     getOr(p, "KAFKA_TOPIC", "weather-forecast-records"),
		LogLevel:       getOr(p, "LOG_LEVEL", "info"),
		LogFormat:      getOr(p, "LOG_FORMAT", "json"),
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			Name:    "weather",
			User:    "postgres",
			SSLMode: "disable",
		},
	}

	if path := getOr(p, "SECRETS_FILE", ""); path != "" {
		var secrets secretsDocument
		if err := decodeDocument(path, &secrets); err != nil {
			return nil, err
		}
		cfg.WeatherAPIKey = secrets.WeatherAPIKey
	}
	cfg.WeatherAPIKey = getOr(p, "WEATHER_API_KEY", cfg.WeatherAPIKey)

	if path := getOr(p, "DB_CONFIG_FILE", ""); path != "" {
		if err := decodeDocument(path, &cfg.Database); err != nil {
			return nil, err
		}
	}
	if err := applyDatabaseOverrides(p, &cfg.Database); err != nil {
		return nil, err
	}

	var err error
	if cfg.Latitude, err = parseFloat(p, "FORECAST_LAT", DefaultLatitude); err != nil {
		return nil, err
	}
	if cfg.Longitude, err = parseFloat(p, "FORECAST_LON", DefaultLongitude); err != nil {
		return nil, err
	}
	if cfg.Location, err = parseLocation(getOr(p, "FORECAST_TIMEZONE", "Local")); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = parsePositiveDuration(p, "HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parsePositiveDuration(p, "SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.ScheduleInterval, err = parseDuration(p, "SCHEDULE_INTERVAL", "0s"); err != nil {
		return nil, err
	}
	if cfg.ScheduleInterval < 0 {
		return nil, errors.New("invalid SCHEDULE_INTERVAL: must not be negative")
	}
	if cfg.ScheduleInterval > 0 && cfg.ScheduleInterval < time.Minute {
		return nil, errors.New("invalid SCHEDULE_INTERVAL: must be at least 1m")
	}

	if brokers := getOr(p, "KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.LoadMode != LoadModeRow && c.LoadMode != LoadModeBatch {
		return fmt.Errorf("invalid LOAD_MODE %q: want %q or %q", c.LoadMode, LoadModeRow, LoadModeBatch)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return errors.New("invalid FORECAST_LAT: out of range")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return errors.New("invalid FORECAST_LON: out of range")
	}
	if c.Database.Host == "" {
		return errors.New("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return errors.New("DB_NAME is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return errors.New("invalid DB_PORT")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func applyDatabaseOverrides(p Provider, db *DatabaseConfig) error {
	db.Host = getOr(p, "DB_HOST", db.Host)
	db.Name = getOr(p, "DB_NAME", db.Name)
	db.User = getOr(p, "DB_USER", db.User)
	db.Password = getOr(p, "DB_PASSWORD", db.Password)
	db.SSLMode = getOr(p, "DB_SSLMODE", db.SSLMode)

	if s := getOr(p, "DB_PORT", ""); s != "" {
		port, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT: %w", err)
		}
		db.Port = port
	}

	maxConns := int64(db.MaxConns)
	if maxConns == 0 {
		maxConns = 4
	}
	if s := getOr(p, "DB_MAX_CONNS", ""); s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil || n <= 0 {
			return errors.New("invalid DB_MAX_CONNS")
		}
		maxConns = n
	}
	db.MaxConns = int32(maxConns)

	timeout := db.StatementTimeout.String()
	if db.StatementTimeout == 0 {
		timeout = "30s"
	}
	d, err := parsePositiveDuration(p, "DB_STATEMENT_TIMEOUT", timeout)
	if err != nil {
		return err
	}
	if d < minStatementTimeout {
		return fmt.Errorf("invalid DB_STATEMENT_TIMEOUT: %s is below the %s minimum", d, minStatementTimeout)
	}
	db.StatementTimeout = d
	return nil
}

func readDotenv(path string) (MapProvider, error) {
	if path == "" {
		return MapProvider{}, nil
	}
	vals, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return MapProvider{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return MapProvider(vals), nil
}

// decodeDocument maps a JSON document onto out. Keys absent from the document
// leave the corresponding fields untouched.
func decodeDocument(path string, out any) error {
	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       durationHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("config decoder: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		return fmt.Errorf("decode config document %s: %w", path, err)
	}
	return nil
}

// durationHook parses duration strings such as "30s". Bare numbers are
// rejected: weak typing would otherwise read 30 as 30ns.
func durationHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String:
		return time.ParseDuration(data.(string))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil, fmt.Errorf("duration %v has no unit, use a string like \"30s\"", data)
	default:
		return data, nil
	}
}

func getOr(p Provider, key, def string) string {
	if v, ok := p.Lookup(key); ok && v != "" {
		return v
	}
	return def
}

func parseFloat(p Provider, key string, def float64) (float64, error) {
	s := getOr(p, key, "")
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDuration(p Provider, key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getOr(p, key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parsePositiveDuration(p Provider, key, def string) (time.Duration, error) {
	d, err := parseDuration(p, key, def)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func parseLocation(name string) (*time.Location, error) {
	switch name {
	case "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid FORECAST_TIMEZONE: %w", err)
	}
	return loc, nil
}
