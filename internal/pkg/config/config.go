package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Map       MapConfig       `mapstructure:"map"`
	Tiles     TilesConfig     `mapstructure:"tiles"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// MapConfig describes the initial view and the optional shapes.
type MapConfig struct {
	CenterLat    float64         `mapstructure:"center_lat"`
	CenterLng    float64         `mapstructure:"center_lng"`
	Zoom         int             `mapstructure:"zoom"`
	MapType      string          `mapstructure:"map_type"`
	HideLabels   bool            `mapstructure:"hide_labels"`
	DefaultColor string          `mapstructure:"default_color"`
	GoogleAPIKey string          `mapstructure:"google_api_key"`
	Marker       MarkerConfig    `mapstructure:"marker"`
	Reference    ReferenceConfig `mapstructure:"reference"`
}

// Center is the initial map center.
func (m MapConfig) Center() domain.GeoPoint {
	return domain.GeoPoint{Lat: m.CenterLat, Lng: m.CenterLng}
}

// MarkerPoint returns the marker position, or nil when the marker is disabled.
func (m MapConfig) MarkerPoint() *domain.GeoPoint {
	if !m.Marker.Enabled {
		return nil
	}
	return &domain.GeoPoint{Lat: m.Marker.Lat, Lng: m.Marker.Lng}
}

// ReferenceRectangle returns the reference rectangle, or nil when disabled.
func (m MapConfig) ReferenceRectangle() *domain.Rectangle {
	if !m.Reference.Enabled || len(m.Reference.Data) != 4 {
		return nil
	}
	r := &domain.Rectangle{ID: "center", Color: domain.ReferenceColor}
	copy(r.Data[:], m.Reference.Data)
	return r
}

type MarkerConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Lat     float64 `mapstructure:"lat"`
	Lng     float64 `mapstructure:"lng"`
}

type ReferenceConfig struct {
	Enabled bool      `mapstructure:"enabled"`
	Data    []float64 `mapstructure:"data"`
}

// TilesConfig locates the tile pyramid and its root tile.
type TilesConfig struct {
	SourceRoot string  `mapstructure:"source_root"`
	Level      int     `mapstructure:"level"`
	Projection string  `mapstructure:"projection"`
	CornerALat float64 `mapstructure:"corner_a_lat"`
	CornerALng float64 `mapstructure:"corner_a_lng"`
	CornerBLat float64 `mapstructure:"corner_b_lat"`
	CornerBLng float64 `mapstructure:"corner_b_lng"`
	Timeout    int     `mapstructure:"timeout"`
}

// CornerA is the first reference corner of the root tile.
func (t TilesConfig) CornerA() domain.GeoPoint {
	return domain.GeoPoint{Lat: t.CornerALat, Lng: t.CornerALng}
}

// CornerB is the opposite reference corner.
func (t TilesConfig) CornerB() domain.GeoPoint {
	return domain.GeoPoint{Lat: t.CornerBLat, Lng: t.CornerBLng}
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GETMAPTILES_MAP_ZOOM → map.zoom
	v.SetEnvPrefix("GETMAPTILES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "getmaptiles")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "getmaptiles")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "tile-survey")

	v.SetDefault("map.center_lat", 50.646993960909164)
	v.SetDefault("map.center_lng", 3.0301131155001353)
	v.SetDefault("map.zoom", 10)
	v.SetDefault("map.map_type", "satellite")
	v.SetDefault("map.hide_labels", true)
	v.SetDefault("map.default_color", "#FFFF00")
	v.SetDefault("map.google_api_key", "")
	v.SetDefault("map.marker.enabled", false)
	v.SetDefault("map.marker.lat", 50.646993960909164)
	v.SetDefault("map.marker.lng", 3.0301131155001353)
	v.SetDefault("map.reference.enabled", false)
	v.SetDefault("map.reference.data", []float64{})

	v.SetDefault("tiles.source_root", "http://localhost:8000")
	v.SetDefault("tiles.level", 16)
	v.SetDefault("tiles.projection", "lambert93")
	v.SetDefault("tiles.corner_a_lat", 50.646993960909164)
	v.SetDefault("tiles.corner_a_lng", 3.0301131155001353)
	v.SetDefault("tiles.corner_b_lat", 50.57243526433171)
	v.SetDefault("tiles.corner_b_lng", 3.1522652309582746)
	v.SetDefault("tiles.timeout", 10)
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		errs = append(errs, fmt.Sprintf("map.zoom must be 0-22, got %d", c.Map.Zoom))
	}
	if c.Map.Reference.Enabled && len(c.Map.Reference.Data) != 4 {
		errs = append(errs, fmt.Sprintf("map.reference.data needs 4 numbers, got %d", len(c.Map.Reference.Data)))
	}
	switch c.Tiles.Projection {
	case "lambert93", "mercator":
	default:
		errs = append(errs, fmt.Sprintf("tiles.projection must be lambert93 or mercator, got %q", c.Tiles.Projection))
	}
	if c.Tiles.Level < 9 {
		errs = append(errs, fmt.Sprintf("tiles.level must be at least 9, got %d", c.Tiles.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
