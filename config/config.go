package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"driver-onboard"`

	// 后端地址，客户端所有请求都基于这个地址
	BackendURL         string        `env:"BACKEND_URL"`
	HTTPDialTimeout    time.Duration `env:"HTTP_DIAL_TIMEOUT" envDefault:"5s"`
	HTTPRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"15s"`

	// 本地存储配置：memory, bolt, redis
	StoreDriver string `env:"STORE_DRIVER" envDefault:"bolt"`
	StorePath   string `env:"STORE_PATH" envDefault:".onboard/state.db"`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"onboard"`

	// 手机号默认区号
	PhoneRegion string `env:"PHONE_REGION" envDefault:"IN"`

	// 进入注册流程时是否默认个人信息已完成
	AssumePersonalInfoComplete bool `env:"ASSUME_PERSONAL_INFO_COMPLETE" envDefault:"true"`
	// 是否允许服务端状态覆盖本地 personalInformation
	ReconcilePersonalInfo bool `env:"RECONCILE_PERSONAL_INFO" envDefault:"false"`

	// 状态同步配置
	ReconcileTimeout         time.Duration `env:"RECONCILE_TIMEOUT" envDefault:"8s"`
	ReconcileBreakerFailures int           `env:"RECONCILE_BREAKER_FAILURES" envDefault:"3"`
	ReconcileBreakerReset    time.Duration `env:"RECONCILE_BREAKER_RESET" envDefault:"30s"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stderr"`

	// 开发用后端配置
	DevServerHost     string        `env:"DEVSERVER_HOST" envDefault:"0.0.0.0"`
	DevServerPort     string        `env:"DEVSERVER_PORT" envDefault:"8888"`
	DevServerOTPCode  string        `env:"DEVSERVER_OTP_CODE"` // 固定验证码，为空时随机生成并打印到日志
	DevServerOTPDaily int           `env:"DEVSERVER_OTP_DAILY" envDefault:"10"`
	DevServerOTPTTL   time.Duration `env:"DEVSERVER_OTP_TTL" envDefault:"5m"`
	// 逗号分隔的 CORS 来源，* 表示任意来源
	DevServerAllowedOrigins []string `env:"DEVSERVER_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// 开发后端的存储：memory 或 redis（redis 时 key 前缀为 REDIS_PREFIX:devserver）
	DevServerStore string `env:"DEVSERVER_STORE" envDefault:"memory"`

	// JWT 配置（开发后端签发 access token）
	JWTSecret        string `env:"JWT_SECRET" envDefault:"dev-only-secret"`
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"60"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	if err := Load(); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}
}

// Load 重新从环境变量解析配置
func Load() error {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return err
	}
	Cfg = cfg

	validateConfig()
	return nil
}

func validateConfig() {
	if Cfg.BackendURL == "" {
		log.Printf("WARN: BACKEND_URL is not set, remote calls will fail with a configuration error")
	}

	switch Cfg.StoreDriver {
	case "memory", "bolt", "redis":
	case "file":
		Cfg.StoreDriver = "bolt"
	default:
		log.Printf("WARN: STORE_DRIVER %q is unknown, falling back to bolt", Cfg.StoreDriver)
		Cfg.StoreDriver = "bolt"
	}

	if Cfg.IsProduction() && Cfg.JWTSecret == "dev-only-secret" {
		log.Printf("WARN: JWT_SECRET uses the development default")
	}

	if Cfg.DevServerStore != "redis" {
		Cfg.DevServerStore = "memory"
	}

	if Cfg.ReconcileTimeout <= 0 {
		Cfg.ReconcileTimeout = 8 * time.Second
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
