package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "pixelfair"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PIXELFAIR_DB_DSN"
	EnvDBHost = "PIXELFAIR_DB_HOST"
	EnvDBUser = "PIXELFAIR_DB_USER"
	EnvDBName = "PIXELFAIR_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PIXELFAIR_APP_ENV" required:"true"`
	Port         string `envconfig:"PIXELFAIR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PIXELFAIR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PIXELFAIR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PIXELFAIR_DB_DSN"`
	Driver string `envconfig:"PIXELFAIR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PIXELFAIR_DB_HOST"`
	LegacyPort     int    `envconfig:"PIXELFAIR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PIXELFAIR_DB_USER"`
	LegacyPassword string `envconfig:"PIXELFAIR_DB_PASSWORD"`
	LegacyName     string `envconfig:"PIXELFAIR_DB_NAME"`
	LegacySSLMode  string `envconfig:"PIXELFAIR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PIXELFAIR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PIXELFAIR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PIXELFAIR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PIXELFAIR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PIXELFAIR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PIXELFAIR_REDIS_ADDR"`
	Password     string        `envconfig:"PIXELFAIR_REDIS_PASSWORD"`
	DB           int           `envconfig:"PIXELFAIR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PIXELFAIR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PIXELFAIR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PIXELFAIR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PIXELFAIR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PIXELFAIR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PIXELFAIR_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PIXELFAIR_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PIXELFAIR_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PIXELFAIR_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PIXELFAIR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PIXELFAIR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PIXELFAIR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PIXELFAIR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PIXELFAIR_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PIXELFAIR_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
