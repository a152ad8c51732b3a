package shared

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"

	"castro_guide/internal/curation"
	"castro_guide/internal/geo"
)

type Config struct {
	AppEnv      string        `koanf:"app_env"`
	LogLevel    string        `koanf:"log_level"`
	HTTPAddr    string        `koanf:"http_addr"`
	MetricsAddr string        `koanf:"metrics_addr"`
	Staging     string        `koanf:"staging"` // sqlite | mysql
	SQLitePath  string        `koanf:"sqlite_path"`
	MySQLDSN    string        `koanf:"mysql_dsn"`
	RedisAddr   string        `koanf:"redis_addr"`
	RedisDB     int           `koanf:"redis_db"`
	RedisPass   string        `koanf:"redis_password"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`
	DataDir     string        `koanf:"data_dir"`
	Workers     int           `koanf:"workers"`

	Hotel    HotelConfig    `koanf:"hotel"`
	Google   GoogleConfig   `koanf:"google"`
	Apify    ApifyConfig    `koanf:"apify"`
	RapidAPI RapidAPIConfig `koanf:"rapidapi"`

	LocationQuery string   `koanf:"location_query"`
	SearchTerms   []string `koanf:"search_terms"`

	// Automatic recommendations when curation.json lists none.
	RecommendMinRating float64 `koanf:"recommend_min_rating"`
	RecommendLimit     int     `koanf:"recommend_limit"`
}

type HotelConfig struct {
	Name string  `koanf:"name"`
	City string  `koanf:"city"`
	Lat  float64 `koanf:"lat"`
	Lng  float64 `koanf:"lng"`
}

func (h HotelConfig) Point() geo.Point { return geo.Point{Lat: h.Lat, Lng: h.Lng} }

type GoogleConfig struct {
	APIKey   string  `koanf:"api_key"`
	BaseURL  string  `koanf:"base_url"`
	RPS      float64 `koanf:"rps"`
	Language string  `koanf:"language"`
}

type ApifyConfig struct {
	Token     string  `koanf:"token"`
	TokenFree string  `koanf:"token_free"`
	BaseURL   string  `koanf:"base_url"`
	RPS       float64 `koanf:"rps"`
}

// TokenFor picks the token for an actor run; free-tier actors prefer the
// free token, everything else prefers the paid one.
func (a ApifyConfig) TokenFor(free bool) string {
	if free && a.TokenFree != "" {
		return a.TokenFree
	}
	if a.Token != "" {
		return a.Token
	}
	return a.TokenFree
}

type RapidAPIConfig struct {
	Key     string  `koanf:"key"`
	Host    string  `koanf:"host"`
	BaseURL string  `koanf:"base_url"`
	RPS     float64 `koanf:"rps"`
}

// ConfigError is one invalid or missing setting.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config %s: %s", e.Key, e.Reason) }

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		AppEnv:      "prod",
		LogLevel:    "info",
		HTTPAddr:    ":8080",
		MetricsAddr: "",
		Staging:     "sqlite",
		SQLitePath:  filepath.Join("data", "places.db"),
		MySQLDSN:    "root:root@tcp(localhost:3306)/guide?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		RedisAddr:   "localhost:6379",
		CacheTTL:    15 * time.Minute,
		DataDir:     filepath.Join("public", "data"),
		Workers:     3,
		Hotel: HotelConfig{
			Name: "Castro's Park Hotel",
			City: "Goiânia",
			Lat:  -16.6799,
			Lng:  -49.254,
		},
		Google: GoogleConfig{
			BaseURL:  "https://maps.googleapis.com/maps/api/place",
			RPS:      5,
			Language: "pt-BR",
		},
		Apify: ApifyConfig{
			BaseURL: "https://api.apify.com/v2",
			RPS:     2,
		},
		RapidAPI: RapidAPIConfig{
			Host:    "local-business-data.p.rapidapi.com",
			BaseURL: "https://local-business-data.p.rapidapi.com",
			RPS:     2,
		},
		LocationQuery:      "Goiania",
		SearchTerms:        append([]string(nil), SearchTerms...),
		RecommendMinRating: 4.2,
		RecommendLimit:     30,
	}
}

// envKeys maps the environment names the ingestion jobs have always used to
// config keys. Anything else in the environment is ignored.
var envKeys = map[string]string{
	"APP_ENV":               "app_env",
	"LOG_LEVEL":             "log_level",
	"HTTP_ADDR":             "http_addr",
	"METRICS_ADDR":          "metrics_addr",
	"STAGING_DB":            "staging",
	"SQLITE_PATH":           "sqlite_path",
	"MYSQL_DSN":             "mysql_dsn",
	"REDIS_ADDR":            "redis_addr",
	"REDIS_DB":              "redis_db",
	"REDIS_PASSWORD":        "redis_password",
	"CACHE_TTL":             "cache_ttl",
	"DATA_DIR":              "data_dir",
	"INGEST_WORKERS":        "workers",
	"HOTEL_NAME":            "hotel.name",
	"HOTEL_CITY":            "hotel.city",
	"HOTEL_LAT":             "hotel.lat",
	"HOTEL_LNG":             "hotel.lng",
	"GOOGLE_PLACES_API_KEY": "google.api_key",
	"GOOGLE_PLACES_RPS":     "google.rps",
	"APIFY_TOKEN":           "apify.token",
	"APIFY_TOKEN_FREE":      "apify.token_free",
	"APIFY_RPS":             "apify.rps",
	"OWEB_API_KEY":          "rapidapi.key",
	"RAPIDAPI_HOST":         "rapidapi.host",
	"LOCATION_QUERY":        "location_query",
	"SEARCH_TERMS":          "search_terms",
	"RECOMMEND_MIN_RATING":  "recommend_min_rating",
	"RECOMMEND_LIMIT":       "recommend_limit",
}

// Load layers defaults, the optional YAML file named by GUIDE_CONFIG, a .env
// file and the process environment (highest precedence), then validates.
func Load(ctx context.Context) (Config, error) {
	cfg := Defaults()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("ignoring unreadable .env")
	}

	k := koanf.New(".")
	if path := os.Getenv("GUIDE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	envProvider := env.ProviderWithValue("", ".", func(name, value string) (string, any) {
		key, ok := envKeys[name]
		if !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
		if key == "search_terms" {
			return key, splitTerms(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings every command needs. Credentials are checked per
// command by the Require* methods.
func (c Config) Validate() error {
	var errs []error
	if !c.Hotel.Point().Valid() {
		errs = append(errs, &ConfigError{Key: "hotel.lat/hotel.lng", Reason: "not a valid coordinate"})
	}
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, &ConfigError{Key: "data_dir", Reason: "must not be empty"})
	}
	switch c.Staging {
	case "sqlite", "mysql":
	default:
		errs = append(errs, &ConfigError{Key: "staging", Reason: fmt.Sprintf("unknown store %q", c.Staging)})
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, &ConfigError{Key: "cache_ttl", Reason: "must be positive"})
	}
	if c.Workers <= 0 {
		errs = append(errs, &ConfigError{Key: "workers", Reason: "must be positive"})
	}
	return errors.Join(errs...)
}

func (c Config) RequireGoogle() error {
	if c.Google.APIKey == "" {
		return &ConfigError{Key: "GOOGLE_PLACES_API_KEY", Reason: "not set"}
	}
	return nil
}

func (c Config) RequireApify() error {
	if c.Apify.Token == "" && c.Apify.TokenFree == "" {
		return &ConfigError{Key: "APIFY_TOKEN", Reason: "not set (APIFY_TOKEN_FREE also accepted)"}
	}
	return nil
}

func (c Config) RequireRapidAPI() error {
	if c.RapidAPI.Key == "" {
		return &ConfigError{Key: "OWEB_API_KEY", Reason: "not set"}
	}
	return nil
}

// Curation builds the read-time curation options for this hotel.
func (c Config) Curation() curation.Options {
	return curation.NewOptions(
		curation.WithCity(c.Hotel.City),
		curation.WithHotelName(c.Hotel.Name),
		curation.WithAutoRecommend(c.RecommendMinRating, c.RecommendLimit),
	)
}

// Path resolves a file inside the data directory.
func (c Config) Path(name string) string { return filepath.Join(c.DataDir, name) }

func splitTerms(s string) []string {
	var out []string
	for _, t := range strings.Split(s, "|") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
