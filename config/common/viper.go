package common

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Viper *viper.Viper
}

func NewViper() *Config {
	config := viper.New()
	config.SetConfigFile(".env")
	config.AddConfigPath("../")
	config.AutomaticEnv()
	setDefaults(config)

	if err := config.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			panic("failed read config")
		}
		// no .env file, environment only
	}
	return &Config{Viper: config}
}

func setDefaults(config *viper.Viper) {
	config.SetDefault("APP_NAME", "real-time-messenger")
	config.SetDefault("APP_PORT", "7720")
	config.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	config.SetDefault("DB_DRIVER", "postgres")
	config.SetDefault("DB_TIMEZONE", "UTC")
	config.SetDefault("SQLITE_PATH", "messenger.db")
	config.SetDefault("JWT_EXPIRES_IN", "720h")
	config.SetDefault("REDIS_DB", 0)
	config.SetDefault("UPLOAD_DIR", "uploads")
	config.SetDefault("PUBLIC_BASE_URL", "http://localhost:7720")
	config.SetDefault("WS_PING_INTERVAL", "25s")
	config.SetDefault("WS_PONG_WAIT", "60s")
	config.SetDefault("RATE_LIMIT_MESSAGES", 30)
	config.SetDefault("RATE_LIMIT_WINDOW", "10s")
	config.SetDefault("RATE_LIMIT_LOGIN", 10)
	config.SetDefault("LOG_DIR", "logs")
}

func (c *Config) GetAppConfig() (appName string) {
	return c.Viper.GetString("APP_NAME")
}

func (c *Config) GetListenAddr() string {
	return ":" + c.Viper.GetString("APP_PORT")
}

func (c *Config) GetCorsOrigins() string {
	return c.Viper.GetString("CORS_ORIGINS")
}

func (c *Config) GetDatabaseDriver() string {
	return c.Viper.GetString("DB_DRIVER")
}

func (c *Config) GetDatabaseConfig() (dbHost, dbUser, dbPassword, dbName, dbPort string) {
	dbHost = c.Viper.GetString("DB_HOSTNAME")
	dbUser = c.Viper.GetString("DB_USER")
	dbPassword = c.Viper.GetString("DB_PASSWORD")
	dbName = c.Viper.GetString("DB_NAME")
	dbPort = c.Viper.GetString("DB_PORT")

	return dbHost, dbUser, dbPassword, dbName, dbPort
}

func (c *Config) GetDatabaseTimezone() string {
	return c.Viper.GetString("DB_TIMEZONE")
}

func (c *Config) GetSQLitePath() string {
	return c.Viper.GetString("SQLITE_PATH")
}

func (c *Config) GetJwtConfig() []byte {
	jwtSecret := c.Viper.GetString("JWT_SECRET")
	return []byte(jwtSecret)
}

func (c *Config) GetJwtExpiry() time.Duration {
	return c.Viper.GetDuration("JWT_EXPIRES_IN")
}

func (c *Config) GetRedisConfig() (addr, password string, db int) {
	return c.Viper.GetString("REDIS_ADDR"), c.Viper.GetString("REDIS_PASSWORD"), c.Viper.GetInt("REDIS_DB")
}

func (c *Config) GetNatsURL() string {
	return c.Viper.GetString("NATS_URL")
}

// GetInstanceName identifies this process in the presence mirror and broker logs.
func (c *Config) GetInstanceName() string {
	return c.Viper.GetString("INSTANCE_NAME")
}

func (c *Config) GetUploadConfig() (dir, publicBaseURL string) {
	return c.Viper.GetString("UPLOAD_DIR"), c.Viper.GetString("PUBLIC_BASE_URL")
}

func (c *Config) GetWebSocketConfig() (pingInterval, pongWait time.Duration) {
	return c.Viper.GetDuration("WS_PING_INTERVAL"), c.Viper.GetDuration("WS_PONG_WAIT")
}

func (c *Config) GetRateLimitConfig() (messages int, window time.Duration, logins int) {
	return c.Viper.GetInt("RATE_LIMIT_MESSAGES"), c.Viper.GetDuration("RATE_LIMIT_WINDOW"), c.Viper.GetInt("RATE_LIMIT_LOGIN")
}

func (c *Config) GetLogDir() string {
	return c.Viper.GetString("LOG_DIR")
}
