package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded bool

// TelegramConfig holds the bot credential and destination chats for
// lead notifications. Empty token or empty chat list disables dispatch.
type TelegramConfig struct {
	BotToken string   `json:"-"`
	ChatIDs  []string `json:"chat_ids"`
}

// Enabled reports whether notifications can be dispatched at all.
func (tc TelegramConfig) Enabled() bool {
	return tc.BotToken != "" && len(tc.ChatIDs) > 0
}

type Config struct {
	Environment    string         `json:"environment"`
	ServerPort     string         `json:"server_port"`
	FrontendOrigin string         `json:"frontend_origin"`
	StaticDir      string         `json:"static_dir"`
	DataDir        string         `json:"data_dir"`
	AdminToken     string         `json:"-"`
	Telegram       TelegramConfig `json:"telegram"`
	Timezone       *time.Location `json:"-"`
	ReportHour     int            `json:"report_hour"`
	ReportMinute   int            `json:"report_minute"`
	IncludeLeadID  bool           `json:"include_lead_id"`
	IncludeIP      bool           `json:"include_ip"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

var reportTimeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// LoadConfig reads the environment into an immutable Config. It is called
// once at startup; everything downstream receives the value explicitly.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("PORT", "3001"),
		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "http://localhost:5173"),
		StaticDir:      getEnv("STATIC_DIR", ""),
		AdminToken:     getEnv("ADMIN_TOKEN", ""),
		IncludeLeadID:  getEnvAsBool("NOTIFY_INCLUDE_ID", false),
		IncludeIP:      getEnvAsBool("NOTIFY_INCLUDE_IP", false),
	}

	dataDir, err := resolveNearExecutable(getEnv("DATA_DIR", ""), "data")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir

	staticDir, err := resolveNearExecutable(cfg.StaticDir, filepath.Join("..", "frontend", "dist"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve static dir: %w", err)
	}
	cfg.StaticDir = staticDir

	tzName := getEnv("TIMEZONE", "Europe/Prague")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = loc

	hour, minute, err := parseReportTime(getEnv("DAILY_REPORT_TIME", "21:00"))
	if err != nil {
		return nil, err
	}
	cfg.ReportHour = hour
	cfg.ReportMinute = minute

	cfg.Telegram = TelegramConfig{
		BotToken: strings.TrimSpace(getEnv("TELEGRAM_BOT_TOKEN", "")),
		ChatIDs:  SplitChatIDs(firstNonEmpty(getEnv("TELEGRAM_CHAT_IDS", ""), getEnv("TELEGRAM_CHAT_ID", ""))),
	}

	logConfig(cfg)
	return cfg, nil
}

// SplitChatIDs parses a comma/whitespace separated list of chat identifiers.
func SplitChatIDs(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			ids = append(ids, f)
		}
	}
	return ids
}

// resolveNearExecutable resolves a path relative to the binary's own
// directory so the layout stays stable regardless of the working directory
// the process manager starts us from.
func resolveNearExecutable(override, rel string) (string, error) {
	if override != "" {
		return filepath.Abs(override)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(exe), rel), nil
}

func parseReportTime(value string) (int, int, error) {
	m := reportTimeRe.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid DAILY_REPORT_TIME %q: expected HH:MM", value)
	}
	var hour, minute int
	fmt.Sscanf(m[1], "%d", &hour)
	fmt.Sscanf(m[2], "%d", &minute)
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid DAILY_REPORT_TIME %q: out of range", value)
	}
	return hour, minute, nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		log.Printf("⚠️ Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func logConfig(cfg *Config) {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", cfg.Environment)
	log.Printf("Server Port: %s", cfg.ServerPort)
	log.Printf("Data Dir: %s", cfg.DataDir)
	log.Printf("Timezone: %s", cfg.Timezone)
	log.Printf("Daily report at: %02d:%02d", cfg.ReportHour, cfg.ReportMinute)
	log.Printf("Telegram: enabled(%t), destinations(%d)", cfg.Telegram.Enabled(), len(cfg.Telegram.ChatIDs))
}
