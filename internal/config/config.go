package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	HTTPHost        string
	HTTPPort        string
	MaxUploadBytes  int64
	MaxPhotoPixels  int
	QRSize          int
	QRLevel         string
	PDFCompress     bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Addr is the listen address for the HTTP server.
func (a App) Addr() string {
	return a.HTTPHost + ":" + a.HTTPPort
}

// Release reports whether the service runs with production settings.
func (a App) Release() bool {
	return a.Env == "production" || a.Env == "prod"
}

// Load returns application config populated from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present; variables already set
// in the environment win.
func Load() App {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}
	return App{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPHost:        getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort:        getEnv("HTTP_PORT", "3000"),
		MaxUploadBytes:  int64(intEnv("MAX_UPLOAD_BYTES", 10<<20)),
		MaxPhotoPixels:  intEnv("PHOTO_MAX_PIXELS", 24_000_000),
		QRSize:          intEnv("QR_SIZE", 256),
		QRLevel:         strings.ToLower(getEnv("QR_LEVEL", "medium")),
		PDFCompress:     boolEnv("PDF_COMPRESS", true),
		ReadTimeout:     durationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    durationEnv("WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimeout: durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil && parsed > 0 {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
