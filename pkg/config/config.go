package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Provider ProviderConfig `mapstructure:"provider"`
	Zhitu    ZhituConfig    `mapstructure:"zhitu"`
	Redis    RedisConfig    `mapstructure:"redis"`
	InfluxDB InfluxDBConfig `mapstructure:"influxdb"`
	Market   MarketConfig   `mapstructure:"market"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug/release/test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text/json
}

// ProviderConfig 数据源配置
type ProviderConfig struct {
	Name           string        `mapstructure:"name"` // ths/zhitu
	BreakerEnabled bool          `mapstructure:"breaker_enabled"`
	BreakerTrip    uint32        `mapstructure:"breaker_trip"`
	BreakerTimeout time.Duration `mapstructure:"breaker_timeout"`
}

// ZhituConfig 知图接口配置
type ZhituConfig struct {
	Token string `mapstructure:"token"`
}

// RedisConfig Redis连接配置
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// InfluxDBConfig InfluxDB连接配置
type InfluxDBConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
}

// MarketConfig 行情相关配置
type MarketConfig struct {
	RefreshCron  string `mapstructure:"refresh_cron"`  // 标的列表刷新周期
	TradingHours string `mapstructure:"trading_hours"` // 为空时按市场推断
}

// Load 从配置文件与环境变量加载配置。
// path 为空时按默认位置查找 marketline.yaml；
// 环境变量以 MARKETLINE_ 为前缀，如 MARKETLINE_SERVER_PORT。
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("marketline")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/marketline")
	}

	v.SetEnvPrefix("MARKETLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 没有配置文件时使用默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")

	v.SetDefault("provider.name", "ths")
	v.SetDefault("provider.breaker_enabled", true)
	v.SetDefault("provider.breaker_trip", 5)
	v.SetDefault("provider.breaker_timeout", 30*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 7*24*time.Hour)

	v.SetDefault("influxdb.enabled", false)
	v.SetDefault("influxdb.url", "http://localhost:8086")
	v.SetDefault("influxdb.bucket", "marketline")

	v.SetDefault("market.refresh_cron", "0 6 * * *")
	v.SetDefault("market.trading_hours", "")
}

// Validate 校验配置的内部一致性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("无效端口: %d", c.Server.Port)
	}
	switch c.Provider.Name {
	case "ths":
	case "zhitu":
		if c.Zhitu.Token == "" {
			return fmt.Errorf("使用 zhitu 数据源时必须配置 zhitu.token")
		}
	default:
		return fmt.Errorf("未知数据源: %q", c.Provider.Name)
	}
	if c.InfluxDB.Enabled && c.InfluxDB.Token == "" {
		return fmt.Errorf("启用 influxdb 时必须配置 influxdb.token")
	}
	return nil
}

// Addr 返回HTTP服务监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
