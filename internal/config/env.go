package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv exports the variables of path into the process environment
// without overriding ones already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// parseEnv overlays environment variables onto c.
func parseEnv(c *Config) {
	setString(&c.HTTPAddr, "HTTP_ADDR")
	setString(&c.DatabaseDSN, "DB_DSN")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.S3Bucket, "S3_BUCKET")
	setString(&c.S3Region, "S3_REGION")
	setString(&c.S3Endpoint, "S3_ENDPOINT")
	setString(&c.S3AccessKey, "S3_ACCESS_KEY")
	setString(&c.S3SecretKey, "S3_SECRET_KEY")
	setString(&c.S3PublicURL, "S3_PUBLIC_URL")
	setString(&c.LogLevel, "LOG_LEVEL")

	if v, ok := os.LookupEnv("TOKEN_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.TokenTTL = d
		}
	}
	if v, ok := os.LookupEnv("LOGIN_RATE_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.LoginRateLimit = n
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
