package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Config struct {
	Port        string
	LogMode     string
	CORSOrigins []string
	JWTSecret   string
	JWTTTL      time.Duration

	DB     DBConfig
	Redis  RedisConfig
	AI     AIConfig
	TTS    TTSConfig
	Media  MediaConfig
	Editor EditorConfig

	GoogleClientID string
	BootstrapAdmin AdminConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Enabled: không có DB_HOST thì chạy với kho trong bộ nhớ
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=Europe/Berlin",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AIConfig struct {
	GeminiAPIKey string
	GeminiModel  string
	VideoModel   string
	PromptsFile  string
	CleanSources bool
}

type TTSConfig struct {
	CredentialsFile string
	LanguageCode    string
	ExpertVoice     string
	HostVoice       string
}

type MediaConfig struct {
	SupabaseURL    string
	SupabaseKey    string
	Bucket         string
	MaxUploadBytes int64
}

type EditorConfig struct {
	VideoPollInterval  time.Duration
	VideoRenderTimeout time.Duration
	SessionIdleTTL     time.Duration
	CleanupInterval    time.Duration
}

type AdminConfig struct {
	Email    string
	Password string
}

// Load đọc .env (nếu có) rồi biến môi trường
func Load() (*Config, error) {
	// .env là tuỳ chọn, khi deploy biến được set trực tiếp
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		LogMode:     getEnv("LOG_MODE", "development"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTTTL:      getEnvAsDuration("JWT_TTL", 72*time.Hour),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "scl_academy"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		AI: AIConfig{
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			VideoModel:   getEnv("VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
			PromptsFile:  getEnv("PROMPTS_FILE", ""),
			CleanSources: getEnvAsBool("CLEAN_SOURCES_WITH_AI", true),
		},
		TTS: TTSConfig{
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
			LanguageCode:    getEnv("TTS_LANGUAGE", "en-US"),
			ExpertVoice:     getEnv("TTS_EXPERT_VOICE", "en-US-Chirp3-HD-Fenrir"),
			HostVoice:       getEnv("TTS_HOST_VOICE", "en-US-Chirp3-HD-Kore"),
		},
		Media: MediaConfig{
			SupabaseURL:    getEnv("SUPABASE_URL", ""),
			SupabaseKey:    getEnv("SUPABASE_KEY", ""),
			Bucket:         getEnv("SUPABASE_BUCKET", "uploads"),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 20)) << 20,
		},
		Editor: EditorConfig{
			VideoPollInterval:  getEnvAsDuration("VIDEO_POLL_INTERVAL", 10*time.Second),
			VideoRenderTimeout: getEnvAsDuration("VIDEO_RENDER_TIMEOUT", 10*time.Minute),
			SessionIdleTTL:     getEnvAsDuration("SESSION_IDLE_TTL", 2*time.Hour),
			CleanupInterval:    getEnvAsDuration("CLEANUP_INTERVAL", 10*time.Minute),
		},
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		BootstrapAdmin: AdminConfig{
			Email:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
			Password: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.Editor.VideoPollInterval <= 0 || c.Editor.VideoRenderTimeout <= 0 {
		return errors.New("VIDEO_POLL_INTERVAL and VIDEO_RENDER_TIMEOUT must be positive")
	}
	if c.Editor.VideoPollInterval >= c.Editor.VideoRenderTimeout {
		return errors.New("VIDEO_POLL_INTERVAL must be shorter than VIDEO_RENDER_TIMEOUT")
	}
	if (c.BootstrapAdmin.Email == "") != (c.BootstrapAdmin.Password == "") {
		return errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	if c.BootstrapAdmin.Password != "" && len(c.BootstrapAdmin.Password) < 8 {
		return errors.New("BOOTSTRAP_ADMIN_PASSWORD must be at least 8 characters")
	}
	return nil
}

// OpenDB kết nối PostgreSQL và cấu hình connection pool
func OpenDB(c DBConfig, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(c.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
