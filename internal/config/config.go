// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Token
	JWTSecret string
	TokenTTL  time.Duration

	// Server
	ServerPort         string
	CORSAllowedOrigins []string

	// Rate Limit
	RateLimitRPS   float64
	RateLimitBurst int

	// Crisis
	CrisisThreshold int
	RedisURL        string // 空の場合はプロセス内カウンタを使用する

	// Voice data retention
	VoiceRetentionDays int // 0の場合は削除しない（既定）

	// Google Sign-In
	GoogleClientID     string // 空の場合はGoogleサインイン無効
	GoogleTokenInfoURL string

	// Owner plan
	OwnerLaunchPasskey string

	// Q&A
	OpenAIAPIKey     string // 空の場合はWikipediaのみで回答する
	OpenAIModel      string
	WikipediaAPIURL  string
	WikipediaRESTURL string

	// Connectors
	SMTP             SMTPConfig
	TelegramBotToken string
	TelegramAPIURL   string
	Twilio           TwilioConfig
}

// SMTPConfig はメール送信の認証情報。
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// TwilioConfig はWhatsApp送信の認証情報。
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
	APIURL       string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", time.Hour)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS",
		[]string{"http://127.0.0.1:5173", "http://localhost:5173"})
	cfg.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", 1)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.CrisisThreshold = getEnvInt("CRISIS_THRESHOLD", 3)
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.VoiceRetentionDays = getEnvInt("VOICE_RETENTION_DAYS", 0)

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleTokenInfoURL = getEnvString("GOOGLE_TOKENINFO_URL", "https://oauth2.googleapis.com/tokeninfo")
	cfg.OwnerLaunchPasskey = os.Getenv("OWNER_LAUNCH_PASSKEY")

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getEnvString("OPENAI_MODEL", "gpt-3.5-turbo")
	cfg.WikipediaAPIURL = getEnvString("WIKIPEDIA_API_URL", "https://en.wikipedia.org/w/api.php")
	cfg.WikipediaRESTURL = getEnvString("WIKIPEDIA_REST_URL", "https://en.wikipedia.org/api/rest_v1")

	cfg.SMTP = SMTPConfig{
		Host:     getEnvString("SMTP_HOST", "smtp.gmail.com"),
		Port:     getEnvInt("SMTP_PORT", 587),
		User:     os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASS"),
		From:     os.Getenv("SMTP_FROM"),
	}
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramAPIURL = getEnvString("TELEGRAM_API_URL", "https://api.telegram.org")
	cfg.Twilio = TwilioConfig{
		AccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		WhatsAppFrom: os.Getenv("TWILIO_WHATSAPP_FROM"),
		APIURL:       getEnvString("TWILIO_API_URL", "https://api.twilio.com"),
	}

	return cfg, nil
}

// LoadDotEnv はpathの.envファイルを環境変数に読み込む。既に設定済みの環境変数は上書きしない。
// ファイルが存在しない場合は何もしない。
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの環境変数を空要素を除いて返す。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var list []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	if len(list) == 0 {
		return defaultVal
	}
	return list
}
