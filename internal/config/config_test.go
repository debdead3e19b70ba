package config

import (
	"log/slog"
	"testing"
	"time"
)

// clearEnv blanks every variable LoadFromEnv reads so the host environment
// does not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "STATIC_DIR",
		"DB_DRIVER", "DB_DSN", "SQLITE_PATH", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_LOG_SQL",
		"MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID", "MQTT_TOPIC", "MQTT_PUBLISH_TOPIC",
		"DEFAULT_LAT", "DEFAULT_LNG", "HISTORY_SIZE", "STATION_COUNT", "NEARBY_RADIUS_KM",
		"FETCH_INTERVAL", "LOCATION_THROTTLE", "SIM_SEED",
		"MAP_WIDTH", "MAP_HEIGHT", "CHART_WIDTH", "CHART_HEIGHT", "SCHEDULING",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, ":8080")
	}
	if got.HistorySize != 24 {
		t.Errorf("HistorySize = %d, want 24", got.HistorySize)
	}
	if got.StationCount != 5 {
		t.Errorf("StationCount = %d, want 5", got.StationCount)
	}
	if got.DefaultLat != 37.7749 || got.DefaultLng != -122.4194 {
		t.Errorf("default location = %v,%v, want 37.7749,-122.4194", got.DefaultLat, got.DefaultLng)
	}
	if got.LocationThrottle != 30*time.Second {
		t.Errorf("LocationThrottle = %v, want 30s", got.LocationThrottle)
	}
	if got.MapWidth != 800 || got.MapHeight != 400 || got.ChartWidth != 800 || got.ChartHeight != 300 {
		t.Errorf("frame sizes = %dx%d / %dx%d", got.MapWidth, got.MapHeight, got.ChartWidth, got.ChartHeight)
	}
	if got.Scheduling != "auto" {
		t.Errorf("Scheduling = %q, want auto", got.Scheduling)
	}
	if got.MQTTEnabled() {
		t.Error("MQTTEnabled() = true without MQTT_BROKER")
	}
}

func TestLoadFromEnv_AppEnv_Valid(t *testing.T) {
	tests := []struct {
		name   string
		appEnv string
		want   string
	}{
		{name: "dev", appEnv: "dev", want: "dev"},
		{name: "prod", appEnv: "prod", want: "prod"},
		{name: "dev with whitespace", appEnv: "  dev  ", want: "dev"},
		{name: "prod with whitespace", appEnv: "\nprod\t", want: "prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", tt.appEnv)
			t.Setenv("LOG_LEVEL", "") // default
			t.Setenv("HTTP_ADDR", "") // default

			got, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v, want nil", err)
			}
			if got.AppEnv != tt.want {
				t.Errorf("AppEnv = %q, want %q", got.AppEnv, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_AppEnv_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		appEnv string
	}{
		{name: "staging", appEnv: "staging"},
		{name: "qa", appEnv: "qa"},
		{name: "uppercase invalid", appEnv: "DEV"}, // APP_ENV is case sensitive
		{name: "random", appEnv: "whatever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", tt.appEnv)
			t.Setenv("LOG_LEVEL", "")
			t.Setenv("HTTP_ADDR", "")

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want non-nil")
			}
		})
	}
}

func TestLoadFromEnv_HTTPAddr(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "default when empty", in: "", want: ":8080"},
		{name: "trims whitespace", in: "  :9090  ", want: ":9090"},
		{name: "host:port", in: "127.0.0.1:8081", want: "127.0.0.1:8081"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", "")   // default dev
			t.Setenv("LOG_LEVEL", "") // default info
			t.Setenv("HTTP_ADDR", tt.in)

			got, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v, want nil", err)
			}
			if got.HTTPAddr != tt.want {
				t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, tt.want)
			}
		})
	}
}

func TestParseLogLevel_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want slog.Level
	}{
		{name: "debug", in: "debug", want: slog.LevelDebug},
		{name: "info", in: "info", want: slog.LevelInfo},
		{name: "warn", in: "warn", want: slog.LevelWarn},
		{name: "warning", in: "warning", want: slog.LevelWarn},
		{name: "error", in: "error", want: slog.LevelError},
		{name: "case insensitive", in: "DeBuG", want: slog.LevelDebug},
		{name: "trims whitespace", in: "  warn \n", want: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if err != nil {
				t.Fatalf("parseLogLevel(%q) error = %v, want nil", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty string", in: ""},
		{name: "garbage", in: "nope"},
		{name: "almost warn", in: "warns"},
		{name: "numeric", in: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if err == nil {
				t.Fatalf("parseLogLevel(%q) error = nil, want non-nil", tt.in)
			}
			// For invalid inputs, function returns LevelInfo along with an error.
			if got != slog.LevelInfo {
				t.Errorf("parseLogLevel(%q) = %v, want %v on error", tt.in, got, slog.LevelInfo)
			}
		})
	}
}

func TestLoadFromEnv_LogLevel_ValidAndInvalid(t *testing.T) {
	t.Run("valid LOG_LEVEL propagates", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "dev")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("HTTP_ADDR", "")

		got, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() error = %v, want nil", err)
		}
		if got.LogLevel != slog.LevelDebug {
			t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelDebug)
		}
	})

	t.Run("invalid LOG_LEVEL returns error", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "dev")
		t.Setenv("LOG_LEVEL", "loud")
		t.Setenv("HTTP_ADDR", "")

		_, err := LoadFromEnv()
		if err == nil {
			t.Fatalf("LoadFromEnv() error = nil, want non-nil")
		}
	})
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key string
		val string
	}{
		{"DB_MAX_OPEN_CONNS", "many"},
		{"DB_LOG_SQL", "sometimes"},
		{"MQTT_PORT", "0"},
		{"HISTORY_SIZE", "1"},
		{"STATION_COUNT", "-1"},
		{"MAP_WIDTH", "99"},
		{"FETCH_INTERVAL", "0s"},
		{"LOCATION_THROTTLE", "soon"},
		{"DEFAULT_LAT", "91"},
		{"DEFAULT_LNG", "NaN"},
		{"NEARBY_RADIUS_KM", "0"},
		{"SIM_SEED", "abc"},
		{"SCHEDULING", "later"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatalf("LoadFromEnv() with %s=%q error = nil, want non-nil", tt.key, tt.val)
			}
		})
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MQTT_BROKER", " broker.local ")
	t.Setenv("MQTT_PORT", "8883")
	t.Setenv("DB_LOG_SQL", "true")
	t.Setenv("DEFAULT_LAT", "51.5")
	t.Setenv("DEFAULT_LNG", "-0.12")
	t.Setenv("SIM_SEED", "42")
	t.Setenv("SCHEDULING", "IMMEDIATE")
	t.Setenv("FETCH_INTERVAL", "1m")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.MQTTBroker != "broker.local" || !got.MQTTEnabled() {
		t.Errorf("MQTTBroker = %q, want broker.local", got.MQTTBroker)
	}
	if got.MQTTPort != 8883 {
		t.Errorf("MQTTPort = %d, want 8883", got.MQTTPort)
	}
	if !got.LogSQL {
		t.Error("LogSQL = false, want true")
	}
	if got.DefaultLat != 51.5 || got.DefaultLng != -0.12 {
		t.Errorf("default location = %v,%v, want 51.5,-0.12", got.DefaultLat, got.DefaultLng)
	}
	if got.SimSeed != 42 {
		t.Errorf("SimSeed = %d, want 42", got.SimSeed)
	}
	if got.Scheduling != "immediate" {
		t.Errorf("Scheduling = %q, want immediate", got.Scheduling)
	}
	if got.FetchInterval != time.Minute {
		t.Errorf("FetchInterval = %v, want 1m", got.FetchInterval)
	}
}
