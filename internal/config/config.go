package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// StaticDir is the absolute path to the directory served at /static/.
	// Set via STATIC_DIR (relative paths are resolved against the process working directory at startup).
	StaticDir string

	Driver          string
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool

	MQTTBroker       string
	MQTTPort         int
	MQTTClientID     string
	MQTTTopic        string
	MQTTPublishTopic string

	DefaultLat       float64
	DefaultLng       float64
	HistorySize      int
	StationCount     int
	NearbyRadiusKm   float64
	FetchInterval    time.Duration
	LocationThrottle time.Duration
	SimSeed          int64

	MapWidth    int
	MapHeight   int
	ChartWidth  int
	ChartHeight int

	Scheduling string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	staticDir := envString("STATIC_DIR", "static")
	staticDir, err = filepath.Abs(staticDir)
	if err != nil {
		return Config{}, fmt.Errorf("STATIC_DIR %q: %w", staticDir, err)
	}

	cfg := Config{
		AppEnv:           appEnv,
		LogLevel:         level,
		HTTPAddr:         envString("HTTP_ADDR", ":8080"),
		StaticDir:        staticDir,
		Driver:           envString("DB_DRIVER", "sqlite3"),
		DSN:              envString("DB_DSN", ""),
		Path:             envString("SQLITE_PATH", "data/airwatch.db"),
		MQTTBroker:       envString("MQTT_BROKER", ""),
		MQTTClientID:     envString("MQTT_CLIENT_ID", "airwatch-server"),
		MQTTTopic:        envString("MQTT_TOPIC", "airwatch/stations/+/telemetry"),
		MQTTPublishTopic: envString("MQTT_PUBLISH_TOPIC", ""),
	}

	ints := []struct {
		key string
		def int
		lo  int
		dst *int
	}{
		{"DB_MAX_OPEN_CONNS", 1, 0, &cfg.MaxOpenConns},
		{"DB_MAX_IDLE_CONNS", 1, 0, &cfg.MaxIdleConns},
		{"MQTT_PORT", 1883, 1, &cfg.MQTTPort},
		{"HISTORY_SIZE", 24, 2, &cfg.HistorySize},
		{"STATION_COUNT", 5, 0, &cfg.StationCount},
		{"MAP_WIDTH", 800, 100, &cfg.MapWidth},
		{"MAP_HEIGHT", 400, 100, &cfg.MapHeight},
		{"CHART_WIDTH", 800, 100, &cfg.ChartWidth},
		{"CHART_HEIGHT", 300, 100, &cfg.ChartHeight},
	}
	for _, e := range ints {
		if *e.dst, err = envInt(e.key, e.def, e.lo); err != nil {
			return Config{}, err
		}
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"DB_CONN_MAX_LIFETIME", "0s", &cfg.ConnMaxLifetime},
		{"FETCH_INTERVAL", "30s", &cfg.FetchInterval},
		{"LOCATION_THROTTLE", "30s", &cfg.LocationThrottle},
	}
	for _, e := range durations {
		if *e.dst, err = envDuration(e.key, e.def); err != nil {
			return Config{}, err
		}
	}
	if cfg.FetchInterval <= 0 {
		return Config{}, fmt.Errorf("invalid FETCH_INTERVAL %q: must be positive", os.Getenv("FETCH_INTERVAL"))
	}

	if cfg.LogSQL, err = envBool("DB_LOG_SQL", false); err != nil {
		return Config{}, err
	}

	if cfg.DefaultLat, err = envFloat("DEFAULT_LAT", 37.7749); err != nil {
		return Config{}, err
	}
	if cfg.DefaultLat < -90 || cfg.DefaultLat > 90 {
		return Config{}, fmt.Errorf("invalid DEFAULT_LAT %q: out of range", os.Getenv("DEFAULT_LAT"))
	}
	if cfg.DefaultLng, err = envFloat("DEFAULT_LNG", -122.4194); err != nil {
		return Config{}, err
	}
	if cfg.DefaultLng < -180 || cfg.DefaultLng > 180 {
		return Config{}, fmt.Errorf("invalid DEFAULT_LNG %q: out of range", os.Getenv("DEFAULT_LNG"))
	}
	if cfg.NearbyRadiusKm, err = envFloat("NEARBY_RADIUS_KM", 10); err != nil {
		return Config{}, err
	}
	if !(cfg.NearbyRadiusKm > 0) {
		return Config{}, fmt.Errorf("invalid NEARBY_RADIUS_KM %q: must be positive", os.Getenv("NEARBY_RADIUS_KM"))
	}

	seedStr := strings.TrimSpace(os.Getenv("SIM_SEED"))
	if seedStr == "" {
		cfg.SimSeed = time.Now().UnixNano()
	} else if cfg.SimSeed, err = strconv.ParseInt(seedStr, 10, 64); err != nil {
		return Config{}, fmt.Errorf("invalid SIM_SEED %q: %w", seedStr, err)
	}

	cfg.Scheduling = strings.ToLower(envString("SCHEDULING", "auto"))
	switch cfg.Scheduling {
	case "auto", "idle", "immediate":
	default:
		return Config{}, fmt.Errorf("invalid SCHEDULING %q (allowed: auto, idle, immediate)", cfg.Scheduling)
	}

	return cfg, nil
}

// MQTTEnabled reports whether a broker is configured.
func (c Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def, lo int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if v < lo {
		return 0, fmt.Errorf("invalid %s %q: must be at least %d", key, s, lo)
	}
	return v, nil
}

func envFloat(key string, def float64) (float64, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q: not a finite number", key, s)
	}
	return v, nil
}

func envDuration(key, def string) (time.Duration, error) {
	s := envString(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
