package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 汇总运行服务所需的全部配置。
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Upload   UploadConfig
	Redis    RedisConfig
	Admin    AdminConfig
	Logging  LoggingConfig
}

// ServerConfig 描述 HTTP 监听相关配置。
type ServerConfig struct {
	ListenAddr string
	Port       int
	GinMode    string
	BaseURL    string
}

// DatabaseConfig 描述 SQLite 数据库配置。
type DatabaseConfig struct {
	Path string
}

// SessionConfig 描述会话中间件配置。
type SessionConfig struct {
	Secret     string
	CookieName string
}

// UploadConfig 描述图片上传目录及对外 URL 前缀。
type UploadConfig struct {
	Dir     string
	URLPath string
}

// RedisConfig 描述可选的统计读缓存，URL 为空时禁用。
type RedisConfig struct {
	URL     string
	Enabled bool
}

// AdminConfig 描述管理员引导账号与会话空闲窗口。
type AdminConfig struct {
	Email       string
	Password    string
	SessionIdle time.Duration
}

// LoggingConfig 描述日志级别与输出格式。
type LoggingConfig struct {
	Level  string
	Format string // "json" 或 "text"
}

// Load 从环境变量（前缀 FOLIO_）与可选的 config.yaml 读取配置，
// 缺失项回退到安全默认值。
func Load() (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("FOLIO")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/inkfolio")

	if err := viper.ReadInConfig(); err != nil {
		// 允许缺少配置文件，仅依赖环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	port := viper.GetInt("http_server_port")
	listenAddr := strings.TrimSpace(viper.GetString("listen_addr"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%d", port)
	}

	redisURL := strings.TrimSpace(viper.GetString("redis_url"))

	cfg := &Config{
		Server: ServerConfig{
			ListenAddr: listenAddr,
			Port:       port,
			GinMode:    viper.GetString("gin_mode"),
			BaseURL:    viper.GetString("site_base_url"),
		},
		Database: DatabaseConfig{
			Path: viper.GetString("database_path"),
		},
		Session: SessionConfig{
			Secret:     viper.GetString("session_secret"),
			CookieName: viper.GetString("session_cookie"),
		},
		Upload: UploadConfig{
			Dir:     viper.GetString("upload_dir"),
			URLPath: viper.GetString("upload_url_path"),
		},
		Redis: RedisConfig{
			URL:     redisURL,
			Enabled: redisURL != "",
		},
		Admin: AdminConfig{
			Email:       viper.GetString("admin_email"),
			Password:    viper.GetString("admin_password"),
			SessionIdle: viper.GetDuration("admin_session_idle"),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString("log_level"),
			Format: viper.GetString("log_format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate 检查无法提供默认值的必填项。
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("http_server_port out of range: %d", c.Server.Port)
	}
	if c.Admin.SessionIdle <= 0 {
		return fmt.Errorf("admin_session_idle must be positive")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("http_server_port", 8080)
	viper.SetDefault("listen_addr", "")
	viper.SetDefault("gin_mode", "release")
	viper.SetDefault("site_base_url", "https://inkfolio.dev")
	viper.SetDefault("database_path", "inkfolio.db")
	viper.SetDefault("session_secret", "inkfolio-dev-secret")
	viper.SetDefault("session_cookie", "inkfolio_session")
	viper.SetDefault("upload_dir", "web/static/uploads")
	viper.SetDefault("upload_url_path", "/static/uploads")
	viper.SetDefault("redis_url", "")
	viper.SetDefault("admin_email", "")
	viper.SetDefault("admin_password", "")
	viper.SetDefault("admin_session_idle", 10*time.Minute)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "json")
}
