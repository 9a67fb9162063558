package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server     Server     `yaml:"server"`
	Logger     Logger     `yaml:"logger"`
	PostgresDB PostgresDB `yaml:"db"`
	Auth       Auth       `yaml:"auth"`
	LoginLimit LoginLimit `yaml:"rdb"`
}

type Server struct {
	Addr           string        `env-default:":3000"    yaml:"addr"`
	ReadTimeout    time.Duration `env-default:"5s"       yaml:"readTimeout"`
	IdleTimeout    time.Duration `env-default:"30s"      yaml:"idleTimeout"`
	WriteTimeout   time.Duration `env-default:"5s"       yaml:"writeTimeout"`
	AllowedOrigins []string      `env-default:"*"        yaml:"allowedOrigins"`
}

type Logger struct {
	Level     string   `env-default:"info"   yaml:"level"`
	Output    []string `env-default:"stdout" yaml:"output"`
	ErrOutput []string `env-default:"stderr" yaml:"errOutput"`
}

// PostgresDB accepts either a full connection URL or discrete credentials.
type PostgresDB struct {
	URL      string `env:"DATABASE_URL"      yaml:"url"`
	Addr     string `yaml:"addr"`
	Username string `env:"POSTGRES_USER"     yaml:"username"`
	Password string `env:"POSTGRES_PASSWORD" yaml:"password"`
	DB       string `env:"POSTGRES_DB"       yaml:"db"`
	SSLmode  string `env-default:"disable"   yaml:"sslmode"`
	MaxConns string `env-default:"10"        yaml:"maxConns"`
	Reload   bool   `yaml:"reload"`
	Version  int    `yaml:"version"`
}

type Auth struct {
	TTL        time.Duration `env-default:"168h" yaml:"ttl"`
	Secret     string        `env:"SECRET"       env-required:"true" yaml:"secret"`
	BcryptCost int           `env-default:"10"   yaml:"bcryptCost"`
}

// LoginLimit configures the redis backed failed-login throttle.
// Empty Addr disables it.
type LoginLimit struct {
	Addr        string        `yaml:"addr"`
	Password    string        `env:"REDIS_PASSWORD"  yaml:"password"`
	DB          int           `yaml:"db"`
	MaxAttempts int           `env-default:"5"       yaml:"maxAttempts"`
	Window      time.Duration `env-default:"15m"     yaml:"window"`
}

func New(configPath string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config error: %w", err)
	}

	if err := cfg.PostgresDB.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ConnString builds the pgx pool connection string.
func (p PostgresDB) ConnString() string {
	if p.URL != "" {
		return p.URL
	}

	return "postgres://" + p.Username + ":" + p.Password + "@" +
		p.Addr + "/" + p.DB + "?" + "sslmode=" + p.SSLmode + "&pool_max_conns=" + p.MaxConns
}

// MigrationConnString is ConnString without pool parameters, suitable for database/sql.
func (p PostgresDB) MigrationConnString() string {
	if p.URL != "" {
		return p.URL
	}

	return "postgres://" + p.Username + ":" + p.Password + "@" +
		p.Addr + "/" + p.DB + "?" + "sslmode=" + p.SSLmode
}

func (p PostgresDB) validate() error {
	if p.URL != "" {
		return nil
	}

	if p.Username == "" || p.DB == "" {
		return fmt.Errorf("db config error: either url or username and db are required") //nolint:perfsprint
	}

	return nil
}
