package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Store      StoreConfig      `mapstructure:"store"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Layout     LayoutConfig     `mapstructure:"layout"`
	Export     ExportConfig     `mapstructure:"export"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置（仅 store.driver=postgres 时使用）
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig 课表持久化配置
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`     // postgres | redis | memory
	KeyPrefix string `mapstructure:"key_prefix"` // 仅 redis 使用
}

// GeminiConfig 视觉识别服务配置
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`  // 环境默认 Key，用户输入优先
	BaseURL string        `mapstructure:"base_url"` // 默认官方地址，可配置代理地址
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ExtractionConfig 识别流水线配置
type ExtractionConfig struct {
	MaxImageBytes      int64         `mapstructure:"max_image_bytes"`
	ThinkingBudget     int           `mapstructure:"thinking_budget"`
	RequestAnalysisLog bool          `mapstructure:"request_analysis_log"`
	RateLimit          int           `mapstructure:"rate_limit"`
	RateWindow         time.Duration `mapstructure:"rate_window"`
}

// LayoutConfig 课表网格配置
type LayoutConfig struct {
	MinPeriods int           `mapstructure:"min_periods"`
	LongPress  time.Duration `mapstructure:"long_press"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	Timezone string `mapstructure:"timezone"` // ICS 事件所在时区
	Weeks    int    `mapstructure:"weeks"`    // ICS 每周重复次数
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// 环境变量中常见的 Key 命名，按顺序回退
var apiKeyEnvFallbacks = []string{"GEMINI_API_KEY", "API_KEY", "GOOGLE_API_KEY"}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// 本地开发时允许使用 .env，不存在则忽略
	_ = godotenv.Load()

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_bytes", 12<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "smart_schedule")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Shanghai")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.key_prefix", "schedule:")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.timeout", "120s")

	v.SetDefault("extraction.max_image_bytes", 10<<20)
	v.SetDefault("extraction.thinking_budget", 16000)
	v.SetDefault("extraction.request_analysis_log", true)
	v.SetDefault("extraction.rate_limit", 10)
	v.SetDefault("extraction.rate_window", "1m")

	v.SetDefault("layout.min_periods", 8)
	v.SetDefault("layout.long_press", "600ms")

	v.SetDefault("export.timezone", "Asia/Shanghai")
	v.SetDefault("export.weeks", 16)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("SCHEDULE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
		cfg.Gemini.APIKey = envAPIKey()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envAPIKey 从通用环境变量中回退读取 API Key
func envAPIKey() string {
	for _, name := range apiKeyEnvFallbacks {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Store.Driver {
	case "postgres", "redis", "memory":
	default:
		return fmt.Errorf("配置校验失败: store.driver 仅支持 postgres/redis/memory，当前为 %q", c.Store.Driver)
	}
	if c.Gemini.Model == "" {
		return fmt.Errorf("配置校验失败: gemini.model 不能为空")
	}
	if c.Layout.MinPeriods < 1 {
		return fmt.Errorf("配置校验失败: layout.min_periods 必须大于 0")
	}
	if _, err := time.LoadLocation(c.Export.Timezone); err != nil {
		return fmt.Errorf("配置校验失败: export.timezone 无效: %w", err)
	}
	if c.Extraction.MaxImageBytes <= 0 {
		return fmt.Errorf("配置校验失败: extraction.max_image_bytes 必须大于 0")
	}
	return nil
}
