package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	AuthModeRemote = "remote"
	AuthModeJWT    = "jwt"

	defaultMaxUploadSize = 50 << 20 // 50 MB
)

// Config is the full server configuration, read once at startup.
type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Storage   Storage   `yaml:"storage"`
	Auth      Auth      `yaml:"auth"`
	Reconcile Reconcile `yaml:"reconcile"`
	Client    Client    `yaml:"client"`
	Logging   Logging   `yaml:"logging"`
}

// Server holds the listener settings.
type Server struct {
	Port string `yaml:"port"`

	// AllowedOrigins lists the browser origins allowed to send cookies
	// cross-origin. "*" alone permits anonymous cross-origin reads only.
	AllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// Database describes the metadata store connection.
type Database struct {
	Driver       string `yaml:"driver"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// Storage describes the blob store and how its files are exposed.
type Storage struct {
	UploadDir       string        `yaml:"upload_dir"`
	MaxUploadSize   int64         `yaml:"max_upload_size"`
	SignedURLs      bool          `yaml:"signed_urls"`
	SignedURLSecret string        `yaml:"signed_url_secret"`
	SignedURLTTL    time.Duration `yaml:"signed_url_ttl"`
}

// Auth selects and configures the identity validator.
type Auth struct {
	Mode      string        `yaml:"mode"`
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	JWTSecret string        `yaml:"jwt_secret"`
}

// Reconcile configures the orphaned blob sweep. Interval defaults to an hour;
// zero disables the sweep.
type Reconcile struct {
	Interval    time.Duration `yaml:"interval"`
	OrphanGrace time.Duration `yaml:"orphan_grace"`
}

// Client is what /config.json hands to the browser client.
type Client struct {
	APIBaseURL string `yaml:"api_base_url"`
}

// Logging configures the leveled file logger.
type Logging struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Load reads .env (if present), then the optional YAML file at path, then
// applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	cfg := &Config{Reconcile: Reconcile{Interval: time.Hour}}
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Port, "PORT")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Name, "DB_NAME")
	setString(&cfg.Database.Path, "DB_PATH")
	if err := setInt(&cfg.Database.Port, "DB_PORT"); err != nil {
		return err
	}
	if err := setInt(&cfg.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS"); err != nil {
		return err
	}

	setString(&cfg.Storage.UploadDir, "UPLOAD_DIR")
	setString(&cfg.Storage.SignedURLSecret, "SIGNED_URL_SECRET")
	if v := os.Getenv("MAX_UPLOAD_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_SIZE %q: %w", v, err)
		}
		cfg.Storage.MaxUploadSize = n
	}
	if v := os.Getenv("SIGNED_URLS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SIGNED_URLS %q: %w", v, err)
		}
		cfg.Storage.SignedURLs = b
	}
	if err := setDuration(&cfg.Storage.SignedURLTTL, "SIGNED_URL_TTL"); err != nil {
		return err
	}

	setString(&cfg.Auth.Mode, "AUTH_MODE")
	setString(&cfg.Auth.URL, "AUTH_URL")
	setString(&cfg.Auth.JWTSecret, "AUTH_JWT_SECRET")
	if err := setDuration(&cfg.Auth.Timeout, "AUTH_TIMEOUT"); err != nil {
		return err
	}

	if err := setDuration(&cfg.Reconcile.Interval, "RECONCILE_INTERVAL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Reconcile.OrphanGrace, "RECONCILE_ORPHAN_GRACE"); err != nil {
		return err
	}

	setString(&cfg.Client.APIBaseURL, "API_BASE_URL")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Dir, "LOG_DIR")
	return nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "3003"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}

	db := &cfg.Database
	if db.Driver == "" {
		db.Driver = DriverMySQL
	}
	switch db.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %s", db.Driver)
	}
	if db.Host == "" {
		db.Host = "localhost"
	}
	if db.Port == 0 {
		db.Port = 3306
	}
	if db.User == "" {
		db.User = "root"
	}
	if db.Password == "" {
		db.Password = "123456"
	}
	if db.Name == "" {
		db.Name = "filevault"
	}
	if db.Path == "" {
		db.Path = "./filevault.db"
	}
	if db.MaxOpenConns <= 0 {
		db.MaxOpenConns = 10
	}

	st := &cfg.Storage
	if st.UploadDir == "" {
		st.UploadDir = "./uploads"
	}
	if st.MaxUploadSize <= 0 {
		st.MaxUploadSize = defaultMaxUploadSize
	}
	if st.SignedURLSecret == "" {
		st.SignedURLSecret = "change-this-download-url-secret"
	}
	if st.SignedURLTTL <= 0 {
		st.SignedURLTTL = time.Hour
	}

	auth := &cfg.Auth
	if auth.Mode == "" {
		auth.Mode = AuthModeRemote
	}
	switch auth.Mode {
	case AuthModeRemote:
		if auth.URL == "" {
			auth.URL = "https://api.zxkws.nyc.mn/api/v1/user"
		}
	case AuthModeJWT:
		if auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when auth mode is %q", AuthModeJWT)
		}
	default:
		return fmt.Errorf("unsupported auth mode: %s", auth.Mode)
	}
	if auth.Timeout <= 0 {
		auth.Timeout = 10 * time.Second
	}

	if cfg.Reconcile.Interval < 0 {
		cfg.Reconcile.Interval = 0
	}
	if cfg.Reconcile.OrphanGrace <= 0 {
		cfg.Reconcile.OrphanGrace = 10 * time.Minute
	}

	if cfg.Client.APIBaseURL == "" {
		cfg.Client.APIBaseURL = "http://127.0.0.1:" + cfg.Server.Port + "/api"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "./logs"
	}

	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Logging.Dir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// splitList parses a comma-separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
