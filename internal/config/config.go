// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 各コンポーネントにはコンストラクタ経由で注入する。
type Config struct {
	// OpenAI
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// Telegram
	TelegramBotToken string
	ChatIDs          []string
	ChatLanguages    []string
	AdminChatID      string

	// Scheduling
	SendHour   int
	SendMinute int
	Location   *time.Location

	// Intervals
	PollInterval        time.Duration
	RepeatSweepInterval time.Duration
	SendInterval        time.Duration
	GenerationTimeout   time.Duration

	// Selection
	HistoryDays int

	// Retention
	LogRetentionDays int

	// Storage
	DatabasePath string

	// Server
	ServerPort string

	// Application
	TestingMode bool
}

// DefaultLocale は受信者のロケールが未設定の場合に使うロケールコード。
const DefaultLocale = "en"

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if cfg.TelegramBotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}

	cfg.ChatIDs = splitList(os.Getenv("TELEGRAM_CHAT_IDS"))
	if len(cfg.ChatIDs) == 0 {
		missing = append(missing, "TELEGRAM_CHAT_IDS")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.OpenAIModel = getEnvString("OPENAI_MODEL", "gpt-4")
	cfg.OpenAIBaseURL = getEnvString("OPENAI_BASE_URL", "https://api.openai.com/v1")
	cfg.ChatLanguages = splitList(os.Getenv("CHAT_LANGUAGES"))
	cfg.AdminChatID = getEnvString("ADMIN_CHAT_ID", "")

	sendTime := getEnvString("SEND_TIME", "08:00")
	hour, minute, err := parseSendTime(sendTime)
	if err != nil {
		return nil, fmt.Errorf("invalid SEND_TIME %q: %w", sendTime, err)
	}
	cfg.SendHour = hour
	cfg.SendMinute = minute

	tz := getEnvString("TIMEZONE", "Europe/Berlin")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	cfg.PollInterval = getEnvDuration("POLL_INTERVAL", 5*time.Second)
	cfg.RepeatSweepInterval = getEnvDuration("REPEAT_SWEEP_INTERVAL", time.Minute)
	cfg.SendInterval = getEnvDuration("SEND_INTERVAL", 500*time.Millisecond)
	cfg.GenerationTimeout = getEnvDuration("GENERATION_TIMEOUT", 60*time.Second)
	cfg.HistoryDays = getEnvInt("HISTORY_DAYS", 14)
	cfg.LogRetentionDays = getEnvInt("LOG_RETENTION_DAYS", 90)
	cfg.DatabasePath = getEnvString("DATABASE_PATH", "data/bot.db")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.TestingMode = strings.EqualFold(getEnvString("TESTING_MODE", "false"), "true")

	return cfg, nil
}

// LocaleForChat は受信者のロケールコードを返す。
// CHAT_LANGUAGESはTELEGRAM_CHAT_IDSと位置で対応する。
// 未知の受信者や未設定の位置にはDefaultLocaleを返す。
func (c *Config) LocaleForChat(chatID string) string {
	for i, id := range c.ChatIDs {
		if id != chatID {
			continue
		}
		if i < len(c.ChatLanguages) && c.ChatLanguages[i] != "" {
			return c.ChatLanguages[i]
		}
		break
	}
	return DefaultLocale
}

// parseSendTime は"HH:MM"形式の送信時刻をパースする。
func parseSendTime(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM format")
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour: %w", err)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute: %w", err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time out of range")
	}
	return hour, minute, nil
}

// splitList はカンマ区切りの環境変数値を空要素を除いて分割する。
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
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
