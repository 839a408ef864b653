package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	Worker   WorkerConfig
	Mapbox   MapboxConfig
	Places   PlacesConfig
	Map      MapConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	AllowedOrigins string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	PlacesCacheTTL time.Duration
}

type LogConfig struct {
	Level string
}

// WorkerConfig - настройки headless-гостя (cmd/worker) и консьюмера событий в API
type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	EventsGroup       string
	StreamReadTimeout time.Duration
	RouteConcurrency  int
	RouteTimeout      time.Duration
}

// MapboxConfig - внешний сервис маршрутизации (Directions API)
type MapboxConfig struct {
	AccessToken    string
	BaseURL        string
	Profile        string
	RequestTimeout int
}

// PlacesConfig - источник мест: postgres (по умолчанию) или REST бэкенд
type PlacesConfig struct {
	Source         string
	BaseURL        string
	RequestTimeout time.Duration
}

// MapConfig - параметры карты и сессий маршрутов
type MapConfig struct {
	Timezone                string
	DefaultLat              float64
	DefaultLng              float64
	DefaultZoom             int
	FocusZoom               int
	RelocateThresholdMeters float64
	SessionTTL              time.Duration
	OutboxMaxLen            int64
	PublicBaseURL           string
	TileURL                 string
	RoutingURL              string
}

const (
	PlacesSourcePostgres = "postgres"
	PlacesSourceHTTP     = "http"
)

func Load() (*Config, error) {
	// .env опционален: в контейнере переменные приходят из окружения
	_ = godotenv.Load()
	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:           viper.GetString("API_HOST"),
			Port:           viper.GetInt("API_PORT"),
			Env:            viper.GetString("API_ENV"),
			AllowedOrigins: viper.GetString("API_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			PlacesCacheTTL: time.Duration(viper.GetInt("PLACES_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			EventsGroup:       viper.GetString("WORKER_EVENTS_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			RouteConcurrency:  viper.GetInt("WORKER_ROUTE_CONCURRENCY"),
			RouteTimeout:      time.Duration(viper.GetInt("WORKER_ROUTE_TIMEOUT")) * time.Second,
		},
		Mapbox: MapboxConfig{
			AccessToken:    viper.GetString("MAPBOX_ACCESS_TOKEN"),
			BaseURL:        viper.GetString("MAPBOX_BASE_URL"),
			Profile:        viper.GetString("MAPBOX_PROFILE"),
			RequestTimeout: viper.GetInt("MAPBOX_REQUEST_TIMEOUT"),
		},
		Places: PlacesConfig{
			Source:         strings.ToLower(strings.TrimSpace(viper.GetString("PLACES_SOURCE"))),
			BaseURL:        strings.TrimRight(viper.GetString("PLACES_BASE_URL"), "/"),
			RequestTimeout: time.Duration(viper.GetInt("PLACES_REQUEST_TIMEOUT")) * time.Second,
		},
		Map: MapConfig{
			Timezone:                viper.GetString("MAP_TIMEZONE"),
			DefaultLat:              viper.GetFloat64("MAP_DEFAULT_LAT"),
			DefaultLng:              viper.GetFloat64("MAP_DEFAULT_LNG"),
			DefaultZoom:             viper.GetInt("MAP_DEFAULT_ZOOM"),
			FocusZoom:               viper.GetInt("MAP_FOCUS_ZOOM"),
			RelocateThresholdMeters: viper.GetFloat64("MAP_RELOCATE_THRESHOLD_METERS"),
			SessionTTL:              time.Duration(viper.GetInt("MAP_SESSION_TTL")) * time.Second,
			OutboxMaxLen:            viper.GetInt64("MAP_OUTBOX_MAX_LEN"),
			PublicBaseURL:           strings.TrimRight(viper.GetString("MAP_PUBLIC_BASE_URL"), "/"),
			TileURL:                 viper.GetString("MAP_TILE_URL"),
			RoutingURL:              viper.GetString("MAP_ROUTING_URL"),
		},
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults - значения по умолчанию для незаданных переменных
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Server.AllowedOrigins == "" {
		c.Server.AllowedOrigins = "http://localhost:3000,http://localhost:5173"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Cache.PlacesCacheTTL == 0 {
		c.Cache.PlacesCacheTTL = 60 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Worker.ConsumerGroup == "" {
		c.Worker.ConsumerGroup = "map-headless-guests"
	}
	if c.Worker.EventsGroup == "" {
		c.Worker.EventsGroup = "map-guest-events"
	}
	if c.Worker.StreamReadTimeout == 0 {
		c.Worker.StreamReadTimeout = 5000 * time.Millisecond
	}
	if c.Worker.RouteConcurrency == 0 {
		c.Worker.RouteConcurrency = 8
	}
	if c.Worker.RouteTimeout == 0 {
		c.Worker.RouteTimeout = 15 * time.Second
	}

	if c.Mapbox.BaseURL == "" {
		c.Mapbox.BaseURL = "https://api.mapbox.com"
	}
	if c.Mapbox.Profile == "" {
		c.Mapbox.Profile = "mapbox/driving"
	}
	if c.Mapbox.RequestTimeout == 0 {
		c.Mapbox.RequestTimeout = 10
	}

	if c.Places.Source == "" {
		c.Places.Source = PlacesSourcePostgres
	}
	if c.Places.RequestTimeout == 0 {
		c.Places.RequestTimeout = 10 * time.Second
	}

	if c.Map.Timezone == "" {
		c.Map.Timezone = "America/La_Paz"
	}
	if c.Map.DefaultLat == 0 && c.Map.DefaultLng == 0 {
		// Cochabamba
		c.Map.DefaultLat = -17.3935
		c.Map.DefaultLng = -66.1570
	}
	if c.Map.DefaultZoom == 0 {
		c.Map.DefaultZoom = 13
	}
	if c.Map.FocusZoom == 0 {
		c.Map.FocusZoom = 16
	}
	if c.Map.RelocateThresholdMeters == 0 {
		c.Map.RelocateThresholdMeters = 50
	}
	if c.Map.SessionTTL == 0 {
		c.Map.SessionTTL = 30 * time.Minute
	}
	if c.Map.OutboxMaxLen == 0 {
		c.Map.OutboxMaxLen = 200
	}
	if c.Map.TileURL == "" {
		c.Map.TileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	}
	if c.Map.RoutingURL == "" {
		c.Map.RoutingURL = "https://router.project-osrm.org/route/v1"
	}
}

func (c *Config) validate() error {
	switch c.Places.Source {
	case PlacesSourcePostgres:
	case PlacesSourceHTTP:
		if c.Places.BaseURL == "" {
			return fmt.Errorf("PLACES_BASE_URL is required when PLACES_SOURCE=%s", PlacesSourceHTTP)
		}
	default:
		return fmt.Errorf("unsupported PLACES_SOURCE %q", c.Places.Source)
	}

	if _, err := time.LoadLocation(c.Map.Timezone); err != nil {
		return fmt.Errorf("invalid MAP_TIMEZONE %q: %w", c.Map.Timezone, err)
	}

	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Location - часовой пояс, в котором интерпретируются расписания мест
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Map.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
