package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
)

// Duration accepts "1h30m" style strings or integer nanoseconds in JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		return err
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

// fileConfig mirrors Config for JSON files. Pointer fields distinguish
// "absent" from zero values so a partial file only overrides what it names.
type fileConfig struct {
	HTTPAddr       *string   `json:"http_addr"`
	DatabaseDSN    *string   `json:"database_dsn"`
	JWTSecret      *string   `json:"jwt_secret"`
	TokenTTL       *Duration `json:"token_ttl"`
	RedisAddr      *string   `json:"redis_addr"`
	LoginRateLimit *int      `json:"login_rate_limit"`
	S3Bucket       *string   `json:"s3_bucket"`
	S3Region       *string   `json:"s3_region"`
	S3Endpoint     *string   `json:"s3_endpoint"`
	S3AccessKey    *string   `json:"s3_access_key"`
	S3SecretKey    *string   `json:"s3_secret_key"`
	S3PublicURL    *string   `json:"s3_public_url"`
	UploadMaxBytes *int64    `json:"upload_max_bytes"`
	LogLevel       *string   `json:"log_level"`
}

// configFilePath extracts -c/-config from args, ignoring every other flag.
func configFilePath(args []string) string {
	var path string
	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(filterArgs(args, []string{"-c", "-config", "--config"}))
	return path
}

func parseJSON(c *Config, args []string) error {
	path := configFilePath(args)
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	assign(&c.HTTPAddr, fc.HTTPAddr)
	assign(&c.DatabaseDSN, fc.DatabaseDSN)
	assign(&c.JWTSecret, fc.JWTSecret)
	if fc.TokenTTL != nil {
		c.TokenTTL = fc.TokenTTL.Duration
	}
	assign(&c.RedisAddr, fc.RedisAddr)
	assign(&c.LoginRateLimit, fc.LoginRateLimit)
	assign(&c.S3Bucket, fc.S3Bucket)
	assign(&c.S3Region, fc.S3Region)
	assign(&c.S3Endpoint, fc.S3Endpoint)
	assign(&c.S3AccessKey, fc.S3AccessKey)
	assign(&c.S3SecretKey, fc.S3SecretKey)
	assign(&c.S3PublicURL, fc.S3PublicURL)
	assign(&c.UploadMaxBytes, fc.UploadMaxBytes)
	assign(&c.LogLevel, fc.LogLevel)
	return nil
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
