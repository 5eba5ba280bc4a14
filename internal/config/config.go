package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"frontdesk/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Hotel      HotelConfig      `yaml:"hotel"`
	Rooms      RoomsConfig      `yaml:"rooms"`
	Intake     IntakeConfig     `yaml:"intake"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
	Google     GoogleConfig     `yaml:"google"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	NATS       NATSConfig       `yaml:"nats"`
	Worker     WorkerConfig     `yaml:"worker"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// HotelConfig is printed on invoices.
type HotelConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
	Email   string `yaml:"email"`
}

// RoomsConfig describes the registry. LayoutPath, when set, points to a
// separate layout file that overrides the inline values.
type RoomsConfig struct {
	LayoutPath string                    `yaml:"layout_path"`
	Count      int                       `yaml:"count"`
	Standard   int                       `yaml:"standard"`
	Deluxe     int                       `yaml:"deluxe"`
	Rates      map[models.RoomType]int64 `yaml:"rates"`
}

type IntakeConfig struct {
	DraftTTLSeconds     int `yaml:"draft_ttl_seconds"`
	SubmitLimit         int `yaml:"submit_limit"`
	SubmitWindowSeconds int `yaml:"submit_window_seconds"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
	BookingsSheetName     string `yaml:"bookings_sheet_name"`
}

type TelegramConfig struct {
	BotToken     string  `yaml:"bot_token"`
	ManagerChats []int64 `yaml:"manager_chats"`
	Debug        bool    `yaml:"debug"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type WorkerConfig struct {
	MaxRetries          int     `yaml:"max_retries"`
	InitialDelaySeconds int     `yaml:"initial_delay_seconds"`
	MaxDelaySeconds     int     `yaml:"max_delay_seconds"`
	BackoffFactor       float64 `yaml:"backoff_factor"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	// a layout file is validated once it is loaded
	if c.Rooms.LayoutPath == "" {
		if err := ValidateRooms(c.Rooms); err != nil {
			return err
		}
	}

	if c.Telegram.BotToken != "" && len(c.Telegram.ManagerChats) == 0 {
		return errors.New("telegram.manager_chats is required when bot_token is set")
	}

	if c.Google.BookingSpreadSheetID != "" && c.Google.GoogleCredentialsFile == "" {
		return errors.New("google.credentials_file is required for sheets sync")
	}

	return ValidateAPIKeys(c.API.Auth.APIKeys)
}

func ValidateRooms(rooms RoomsConfig) error {
	if rooms.Count <= 0 {
		return fmt.Errorf("rooms.count must be positive, got %d", rooms.Count)
	}
	if rooms.Standard < 0 || rooms.Deluxe < 0 {
		return errors.New("rooms.standard and rooms.deluxe must not be negative")
	}
	for t, rate := range rooms.Rates {
		if !t.Valid() {
			return fmt.Errorf("unknown room type in rates: %q", t)
		}
		if rate <= 0 {
			return fmt.Errorf("rate for %s must be positive", t)
		}
	}
	return nil
}

func ValidateAPIKeys(keys []APIClientKey) error {
	seen := make(map[string]bool)
	for _, k := range keys {
		if k.Key == "" {
			return fmt.Errorf("api key '%s' is empty", k.Name)
		}
		if seen[k.Key] {
			return fmt.Errorf("duplicate api key for client '%s'", k.Name)
		}
		seen[k.Key] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "frontdesk"
	}
	if c.Hotel.Name == "" {
		c.Hotel.Name = "Hotel Paradise"
	}

	if c.Rooms.Count == 0 && c.Rooms.LayoutPath == "" {
		c.Rooms.Count = 15
		c.Rooms.Standard = 5
		c.Rooms.Deluxe = 5
	}
	if c.Rooms.Rates == nil {
		c.Rooms.Rates = make(map[models.RoomType]int64, len(models.DefaultRates))
		for t, r := range models.DefaultRates {
			c.Rooms.Rates[t] = r
		}
	}

	if c.Intake.DraftTTLSeconds == 0 {
		c.Intake.DraftTTLSeconds = models.DefaultDraftTTL
	}
	if c.Intake.SubmitLimit == 0 {
		c.Intake.SubmitLimit = models.SubmitLimit
	}
	if c.Intake.SubmitWindowSeconds == 0 {
		c.Intake.SubmitWindowSeconds = models.SubmitWindow
	}

	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Google.BookingsSheetName == "" {
		c.Google.BookingsSheetName = "Bookings"
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "frontdesk"
	}

	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 5
	}
	if c.Worker.InitialDelaySeconds == 0 {
		c.Worker.InitialDelaySeconds = 2
	}
	if c.Worker.MaxDelaySeconds == 0 {
		c.Worker.MaxDelaySeconds = 60
	}
	if c.Worker.BackoffFactor == 0 {
		c.Worker.BackoffFactor = 2
	}
}
