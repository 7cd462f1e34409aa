// Package config はサーバーとクライアントの設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// ストアのドライバー
const (
	DriverMongo    = "mongo"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DBConfig はSQLストアの接続設定です。DatabaseURLが空ならDB_*から組み立てます。
// Portが空ならドライバーの標準ポートを使います。
type DBConfig struct {
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	User        string `yaml:"user" env:"DB_USER"`
	Pass        string `yaml:"pass" env:"DB_PASS"`
	Host        string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port        string `yaml:"port" env:"DB_PORT"`
	Name        string `yaml:"name" env:"DB_NAME" env-default:"trackit"`
}

// MongoConfig はMongoDBの接続設定です。
type MongoConfig struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"MONGO_DB" env-default:"trackit"`
}

// Config はAPIサーバーの設定です。
type Config struct {
	Port            string        `yaml:"port" env:"PORT" env-default:"5000"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat       string        `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	GinMode         string        `yaml:"gin_mode" env:"GIN_MODE" env-default:"release"`
	StoreDriver     string        `yaml:"store_driver" env:"STORE_DRIVER" env-default:"mongo"`
	Mongo           MongoConfig   `yaml:"mongo"`
	DB              DBConfig      `yaml:"db"`
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	JWTExpiry       time.Duration `yaml:"jwt_expiry" env:"JWT_EXPIRY" env-default:"720h"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
	StrictStatus    bool          `yaml:"strict_status" env:"STRICT_STATUS" env-default:"false"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Load は.envを読み込んだあと、設定ファイル(任意)と環境変数からConfigを作ります。
func Load(configPath string) (Config, error) {
	// .env が無いのは正常
	_ = godotenv.Load()

	var cfg Config
	if err := read(configPath, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoad はLoadに失敗したら終了します。
func MustLoad(configPath string) Config {
	cfg, err := Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// read は設定ファイルがあればそれを、無ければ環境変数のみを読みます。
func read(configPath string, cfg any) error {
	if configPath == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("cannot read env: %w", err)
		}
		return nil
	}
	if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			if err := cleanenv.ReadEnv(cfg); err != nil {
				return fmt.Errorf("cannot read env: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot read config %q: %w", configPath, err)
	}
	return nil
}

// Validate は値の組み合わせを検証します。
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo, DriverMySQL, DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.JWTExpiry <= 0 {
		return errors.New("JWT_EXPIRY must be positive")
	}
	return nil
}

// Addr はlisten用のアドレスを返します。
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// DSN はSQLドライバー向けの接続文字列を返します。
func (c DBConfig) DSN(driver string) string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	switch driver {
	case DriverPostgres:
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.User, c.Pass, c.Host, c.portOr("5432"), c.Name)
	case DriverSQLite:
		return c.Name + ".db"
	default:
		// 例: user:pass@tcp(db:3306)/dbname
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.User, c.Pass, c.Host, c.portOr("3306"), c.Name)
	}
}

func (c DBConfig) portOr(def string) string {
	if c.Port == "" {
		return def
	}
	return c.Port
}

// ClientConfig はCLIクライアントの設定です。
type ClientConfig struct {
	ServerURL   string        `yaml:"server_url" env:"TRACKIT_URL" env-default:"http://localhost:5000"`
	Timeout     time.Duration `yaml:"timeout" env:"TRACKIT_TIMEOUT" env-default:"5s"`
	SessionPath string        `yaml:"session_path" env:"TRACKIT_SESSION"`
	Token       string        `yaml:"-" env:"TRACKIT_TOKEN"`
	LogLevel    string        `yaml:"log_level" env:"TRACKIT_LOG_LEVEL" env-default:"warn"`
}

// LoadClient はクライアント設定を読み込みます。
func LoadClient(configPath string) (ClientConfig, error) {
	_ = godotenv.Load()

	var cfg ClientConfig
	if err := read(configPath, &cfg); err != nil {
		return ClientConfig{}, err
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.Timeout <= 0 {
		return ClientConfig{}, errors.New("TRACKIT_TIMEOUT must be positive")
	}
	return cfg, nil
}
