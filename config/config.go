package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"geoattend"`

	// PostgreSQL 配置
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"geoattend"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"30"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"200"`
	// 只读副本，逗号分隔的完整 DSN，为空则不启用读写分离
	PostgreSQLReplicaDSNs []string `env:"POSTGRESQL_REPLICA_DSNS" envSeparator:","`

	// 允许跨域的来源，逗号分隔，为空时回显请求的 Origin
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"geo"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置，token 由外部认证服务签发，这里只做校验
	JWTSecret        string `env:"JWT_SECRET"`
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"30"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置
	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`
	ServiceVersion  string  `env:"SERVICE_VERSION" envDefault:"dev"`

	// 速率限制配置，打卡接口按员工限流
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitWindow  int  `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	RateLimitMax     int  `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"20"`

	// 考勤配置
	AttendanceTimezone   string  `env:"ATTENDANCE_TIMEZONE" envDefault:"Asia/Jakarta"`
	WorkStartTime        string  `env:"WORK_START_TIME" envDefault:"08:00"`
	LateThresholdMinutes int     `env:"LATE_THRESHOLD_MINUTES" envDefault:"15"`
	DefaultZoneRadius    float64 `env:"DEFAULT_ZONE_RADIUS_METERS" envDefault:"100"`
	ZoneCacheTTLSeconds  int     `env:"ZONE_CACHE_TTL_SECONDS" envDefault:"300"`

	// 远程办公兜底窗口：定位失败时，接受开始日期在 N 天内的最近审批记录；N < 0 关闭兜底
	RemoteWorkFallbackDays  int `env:"REMOTE_WORK_FALLBACK_DAYS" envDefault:"3"`
	RemoteWorkFallbackLimit int `env:"REMOTE_WORK_FALLBACK_LIMIT" envDefault:"5"`

	// 定位策略之间的间隔。服务端重放的是客户端上报的结果，默认不等待
	LocationRetryPauseMillis int `env:"LOCATION_RETRY_PAUSE_MS" envDefault:"0"`
	LocationSessionIdleMins  int `env:"LOCATION_SESSION_IDLE_MINUTES" envDefault:"10"`
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}
}

// Validate 在各个进程入口调用，失败直接退出
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if _, err := time.LoadLocation(c.AttendanceTimezone); err != nil {
		errs = append(errs, fmt.Errorf("ATTENDANCE_TIMEZONE is invalid: %w", err))
	}
	if _, err := time.Parse("15:04", c.WorkStartTime); err != nil {
		errs = append(errs, fmt.Errorf("WORK_START_TIME must be HH:MM: %w", err))
	}
	if c.DefaultZoneRadius <= 0 {
		errs = append(errs, errors.New("DEFAULT_ZONE_RADIUS_METERS must be positive"))
	}
	if c.RemoteWorkFallbackLimit <= 0 {
		errs = append(errs, errors.New("REMOTE_WORK_FALLBACK_LIMIT must be positive"))
	}

	if c.RemoteWorkFallbackDays >= 0 {
		log.Printf("WARN: remote work fallback window enabled (%d days), approvals near today are honoured when location is unavailable", c.RemoteWorkFallbackDays)
	}

	return errors.Join(errs...)
}

func (c *Config) GetDSN() string {
	return "host=" + c.PostgreSQLHost +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

// Location 考勤日期所在时区，配置非法时回退 UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AttendanceTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) JWTTimeout() time.Duration {
	return time.Duration(c.JWTExpireMinutes) * time.Minute
}

func (c *Config) ZoneCacheTTL() time.Duration {
	return time.Duration(c.ZoneCacheTTLSeconds) * time.Second
}

func (c *Config) LocationRetryPause() time.Duration {
	return time.Duration(c.LocationRetryPauseMillis) * time.Millisecond
}

func (c *Config) LocationSessionIdle() time.Duration {
	return time.Duration(c.LocationSessionIdleMins) * time.Minute
}

func (c *Config) LateThreshold() time.Duration {
	return time.Duration(c.LateThresholdMinutes) * time.Minute
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
