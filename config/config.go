package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mail     MailConfig     `mapstructure:"mail"`
	Log      LogConfig      `mapstructure:"log"`
	Sheet    SheetConfig    `mapstructure:"sheet"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Report   ReportConfig   `mapstructure:"report"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port     int        `mapstructure:"port"`
	BaseURL  string     `mapstructure:"base_url"`
	// ResetURL 前端重置密码页面，为空时重置链接直接返回 JSON
	ResetURL string     `mapstructure:"reset_url"`
	CORS     CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置（请假记录 + 用户表）
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

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// MailConfig SMTP 邮件配置
type MailConfig struct {
	SMTPHost string        `mapstructure:"smtp_host"`
	SMTPPort int           `mapstructure:"smtp_port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	FromName string        `mapstructure:"from_name"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SheetConfig 请假表格配置
type SheetConfig struct {
	Backend         string `mapstructure:"backend"` // google | excel
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Worksheet       string `mapstructure:"worksheet"` // 为空时使用第一个工作表
	CredentialsFile string `mapstructure:"credentials_file"`
	ExcelPath       string `mapstructure:"excel_path"`
	StrictDelete    bool   `mapstructure:"strict_delete"` // 删除时 code 必须严格相等
}

// TelegramConfig 通知机器人配置
type TelegramConfig struct {
	BotToken   string        `mapstructure:"bot_token"`
	ChatID     string        `mapstructure:"chat_id"`
	APIBase    string        `mapstructure:"api_base"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// Enabled 是否配置了机器人
func (c *TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// ReportConfig 医院就诊报表任务配置
type ReportConfig struct {
	HosXP         HosXPConfig `mapstructure:"hosxp"`
	SpreadsheetID string      `mapstructure:"spreadsheet_id"`
	Worksheet     string      `mapstructure:"worksheet"`
	ChunkSize     int         `mapstructure:"chunk_size"`
}

// Enabled 报表任务所需配置是否齐全
func (c *ReportConfig) Enabled() bool {
	return c.HosXP.Host != "" && c.HosXP.Database != "" && c.SpreadsheetID != "" && c.Worksheet != ""
}

// HosXPConfig 医院 MySQL 数据库连接配置
type HosXPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// DSN 生成 MySQL 连接字符串
func (c *HosXPConfig) DSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8&parseTime=false&timeout=10s",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

// 旧部署沿用的环境变量名
var legacyEnv = map[string]string{
	"auth.jwt_secret":        "SECRET_KEY",
	"sheet.spreadsheet_id":   "SPREADSHEET_ID",
	"sheet.credentials_file": "GOOGLE_SA_FILE",
	"telegram.bot_token":     "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":       "TELEGRAM_CHAT_ID",
	"telegram.api_base":      "TELEGRAM_API_BASE",
	"report.hosxp.host":      "HOSXP_HOST",
	"report.hosxp.port":      "HOSXP_PORT",
	"report.hosxp.user":      "HOSXP_USER",
	"report.hosxp.password":  "HOSXP_PASSWORD",
	"report.hosxp.database":  "HOSXP_DATABASE",
	"report.spreadsheet_id":  "REPORT_SPREADSHEET_ID",
	"report.worksheet":       "REPORT_WORKSHEET",
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.base_url", "http://localhost:5001")
	v.SetDefault("server.reset_url", "")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "leave_tracker")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 30) // 对应原 pool_recycle=1800s
	v.SetDefault("db.conn_max_idle_time", 10)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "12h")

	v.SetDefault("mail.smtp_host", "smtp.gmail.com")
	v.SetDefault("mail.smtp_port", 465)
	v.SetDefault("mail.from_name", "Leave App")
	v.SetDefault("mail.timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("sheet.backend", "google")
	v.SetDefault("sheet.credentials_file", "service-account.json")
	v.SetDefault("sheet.excel_path", "leaves.xlsx")
	v.SetDefault("sheet.strict_delete", false)

	v.SetDefault("telegram.api_base", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", "10s")
	v.SetDefault("telegram.max_retries", 3)

	v.SetDefault("report.hosxp.port", 3306)
	v.SetDefault("report.chunk_size", 500)

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
	v.SetEnvPrefix("LEAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		envKey := "LEAVE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, env); err != nil {
			return nil, fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}

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

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
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
	switch c.Sheet.Backend {
	case "google":
		if c.Sheet.SpreadsheetID == "" {
			return fmt.Errorf("配置校验失败: sheet.spreadsheet_id 不能为空")
		}
		if c.Sheet.CredentialsFile == "" {
			return fmt.Errorf("配置校验失败: sheet.credentials_file 不能为空")
		}
	case "excel":
		if c.Sheet.ExcelPath == "" {
			return fmt.Errorf("配置校验失败: sheet.excel_path 不能为空")
		}
	default:
		return fmt.Errorf("配置校验失败: 未知的 sheet.backend %q", c.Sheet.Backend)
	}
	return nil
}
