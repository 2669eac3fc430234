package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	DBDriver string
	DBDSN    string

	JWTSecret string
	TokenTTL  time.Duration

	AdminEmail    string
	AdminPassword string

	UploadDir    string
	MaxUploadMB  int
	AuthURL      string
	DesignsURL   string
	LoginPerMin  int
	LoginBurst   int
	AllowOrigins []string

	LogLevel string
	LogFile  string
}

// DefaultJWTSecret подходит только для разработки.
const DefaultJWTSecret = "dev-secret-change-me"

// Load загружает конфигурацию из .env (если есть) и переменных окружения.
// defaultPort используется, когда PORT не задан.
func Load(defaultPort string) *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", defaultPort),
		Environment:   getEnv("ENV", "development"),
		ReadTimeout:   getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout:  getEnvAsInt("WRITE_TIMEOUT", 10),
		DBDriver:      getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:         os.Getenv("DB_DSN"),
		JWTSecret:     getEnv("JWT_SECRET", DefaultJWTSecret),
		TokenTTL:      getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		UploadDir:     getEnv("UPLOAD_DIR", "data/uploads"),
		MaxUploadMB:   getEnvAsInt("MAX_UPLOAD_MB", 10),
		AuthURL:       getEnv("AUTH_URL", "http://localhost:3002"),
		DesignsURL:    getEnv("DESIGNS_URL", "http://localhost:3003"),
		LoginPerMin:   getEnvAsInt("LOGIN_PER_MIN", 10),
		LoginBurst:    getEnvAsInt("LOGIN_BURST", 5),
		AllowOrigins:  getEnvAsList("ALLOW_ORIGINS", []string{"*"}),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogFile:       os.Getenv("LOG_FILE"),
	}
}

// DSN возвращает строку подключения, подставляя путь sqlite по умолчанию.
func (c *Config) DSN(defaultSQLitePath string) string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	if c.DBDriver == "sqlite3" {
		return defaultSQLitePath
	}
	return ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
