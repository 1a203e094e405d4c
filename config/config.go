package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	GinMode       string
	MongoURI      string
	JWTSecret     string
	TokenTTL      time.Duration
	ClientOrigins []string
	CloudinaryURL string
	VAPIDPublic   string
	VAPIDPrivate  string
	VAPIDSubject  string
	TypingTTL     time.Duration
}

// Load reads .env (if present) and collects the process configuration.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      getEnvAsDuration("TOKEN_TTL", 7*24*time.Hour),
		ClientOrigins: []string{getEnv("CLIENT_URL", "http://localhost:3000")},
		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
		VAPIDPublic:   os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivate:  os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubject:  getEnv("VAPID_SUBJECT", "mailto:admin@chatx.app"),
		TypingTTL:     getEnvAsDuration("TYPING_TTL", 8*time.Second),
	}

	if cfg.JWTSecret == "" || cfg.MongoURI == "" {
		return nil, fmt.Errorf("JWT_SECRET and MONGODB_URI must be set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
