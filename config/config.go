package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Image backends.
const (
	ImageEmbedded = "embedded"
	ImageGCS      = "gcs"
	ImageR2       = "r2"
)

type Config struct {
	Port string

	StoreDriver  string
	MongoURI     string
	DatabaseName string
	PostgresDSN  string

	AllowedOrigins []string

	JWTSecret     string
	AccessTTL     time.Duration
	AdminEmail    string
	AdminPassword string

	ImageBackend       string
	GCSBucket          string
	GCSCredentialsFile string
	R2Bucket           string
	R2AccessKeyID      string
	R2SecretAccessKey  string
	R2Endpoint         string

	ReadQueryMaxLimit    int
	CategoryDeletePolicy string
}

// Load reads the .env file when present and builds the Config from the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		StoreDriver:  strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		MongoURI:     os.Getenv("MONGODB_URI"),
		DatabaseName: getEnv("DATABASE_NAME", "catalog"),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),

		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		AccessTTL:     time.Duration(getInt("ACCESS_TOKEN_TTL_MINUTES", 15)) * time.Minute,
		AdminEmail:    strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		ImageBackend:       strings.ToLower(getEnv("IMAGE_BACKEND", ImageEmbedded)),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCSCredentialsFile: os.Getenv("CREDENTIALS_FILE_LOCATION"),
		R2Bucket:           os.Getenv("R2_BUCKET"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2Endpoint:         os.Getenv("R2_ENDPOINT"),

		ReadQueryMaxLimit:    getInt("READ_QUERY_MAX_LIMIT", 100),
		CategoryDeletePolicy: strings.ToLower(getEnv("CATEGORY_DELETE_POLICY", "orphan")),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
