package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 存储驱动
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMySQL    = "mysql"
	StorageDriverMemory   = "memory"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"db"`
	MySQL      MySQLConfig      `mapstructure:"mysql"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	WhatsApp   WhatsAppConfig   `mapstructure:"whatsapp"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BaseURL      string     `mapstructure:"base_url"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// StorageConfig 持久化后端选择
// postgres / mysql 走 GORM 适配器，memory 为进程内存储（单机演示、测试）
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// DatabaseConfig PostgreSQL 数据库配置
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
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// MySQLConfig MySQL 数据库配置
type MySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// DSN 生成 MySQL 连接字符串
func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Name,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 员工目录缓存有效期
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret              string        `mapstructure:"jwt_secret"`
	AccessTokenTTL         time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL        time.Duration `mapstructure:"refresh_token_ttl"`
	BootstrapAdminPassword string        `mapstructure:"bootstrap_admin_password"`
	LoginRateLimit         int           `mapstructure:"login_rate_limit"`
	LoginRateWindow        time.Duration `mapstructure:"login_rate_window"`
	Cookie                 CookieConfig  `mapstructure:"cookie"`
}

// CookieConfig Cookie 安全配置
type CookieConfig struct {
	Secure bool   `mapstructure:"secure"`
	Domain string `mapstructure:"domain"`
}

// AttendanceConfig 接待记录配置
type AttendanceConfig struct {
	// VisibilityWindow 标记为已接待后，记录在看板上继续显示的时长
	VisibilityWindow time.Duration `mapstructure:"visibility_window"`
	// NotifyTimeout 单次部门通知的超时时间
	NotifyTimeout time.Duration `mapstructure:"notify_timeout"`
	// Timezone 解析仅含日期的查询条件时使用的时区，为空时使用本地时区
	Timezone string `mapstructure:"timezone"`
}

// Location 返回业务时区
func (c *AttendanceConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// WhatsAppConfig WhatsApp 网关配置
type WhatsAppConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	Token      string        `mapstructure:"token"`
	Sender     string        `mapstructure:"sender"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值；.env 文件存在时先注入环境变量
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 文件失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)

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
	v.SetEnvPrefix("ATENDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("storage.driver", StorageDriverPostgres)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "atende_agora")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "America/Sao_Paulo")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.name", "atende_agora")
	v.SetDefault("mysql.user", "root")
	v.SetDefault("mysql.password", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", "10m")

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "12h")
	v.SetDefault("auth.bootstrap_admin_password", "")
	v.SetDefault("auth.login_rate_limit", 10)
	v.SetDefault("auth.login_rate_window", "1m")
	v.SetDefault("auth.cookie.secure", false)

	v.SetDefault("attendance.visibility_window", "40s")
	v.SetDefault("attendance.notify_timeout", "10s")
	v.SetDefault("attendance.timezone", "America/Sao_Paulo")

	v.SetDefault("whatsapp.enabled", false)
	v.SetDefault("whatsapp.base_url", "")
	v.SetDefault("whatsapp.timeout", "10s")
	v.SetDefault("whatsapp.retry_count", 2)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMySQL, StorageDriverMemory:
	default:
		return fmt.Errorf("配置校验失败: storage.driver 不支持 %q", c.Storage.Driver)
	}
	if c.Attendance.VisibilityWindow <= 0 {
		return fmt.Errorf("配置校验失败: attendance.visibility_window 必须大于 0")
	}
	if c.Attendance.Timezone != "" {
		if _, err := time.LoadLocation(c.Attendance.Timezone); err != nil {
			return fmt.Errorf("配置校验失败: attendance.timezone 无效: %w", err)
		}
	}
	if c.WhatsApp.Enabled && c.WhatsApp.BaseURL == "" {
		return fmt.Errorf("配置校验失败: 启用 whatsapp 时 whatsapp.base_url 不能为空")
	}
	return nil
}
