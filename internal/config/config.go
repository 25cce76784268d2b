// Package config loads server settings from a YAML file, an optional .env
// file and SOCIAL_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"db"`
	Session  Session  `yaml:"session"`
	Uploads  Uploads  `yaml:"uploads"`
	Security Security `yaml:"security"`
}

type Server struct {
	Addr         string   `yaml:"addr"`
	TemplatesDir string   `yaml:"templates_dir"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Session struct {
	CookieName string   `yaml:"cookie_name"`
	TTL        Duration `yaml:"ttl"`
}

type Uploads struct {
	Backend  string `yaml:"backend"`
	Dir      string `yaml:"dir"`
	MaxBytes int64  `yaml:"max_bytes"`
	S3       S3     `yaml:"s3"`
}

type S3 struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type Security struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// Duration accepts Go duration strings such as "24h" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func Default() Config {
	return Config{
		Server: Server{
			Addr:         ":8080",
			TemplatesDir: "web/templates",
			ReadTimeout:  Duration(5 * time.Second),
			WriteTimeout: Duration(10 * time.Second),
			IdleTimeout:  Duration(120 * time.Second),
		},
		Database: Database{Path: "data/social.db"},
		Session:  Session{CookieName: "session_id", TTL: Duration(24 * time.Hour)},
		Uploads: Uploads{
			Backend:  BackendLocal,
			Dir:      "data/uploads",
			MaxBytes: 10 << 20,
			S3:       S3{Region: "auto"},
		},
		Security: Security{BcryptCost: 12},
	}
}

// Load reads path (a missing file is not an error), then envFile, then the
// process environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		log.Printf("config: %s not found, using defaults", path)
	default:
		return nil, err
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("SOCIAL_ADDR", &c.Server.Addr)
	str("SOCIAL_TEMPLATES_DIR", &c.Server.TemplatesDir)
	str("SOCIAL_DB_PATH", &c.Database.Path)
	str("SOCIAL_COOKIE_NAME", &c.Session.CookieName)
	str("SOCIAL_UPLOADS_BACKEND", &c.Uploads.Backend)
	str("SOCIAL_UPLOADS_DIR", &c.Uploads.Dir)
	str("SOCIAL_S3_BUCKET", &c.Uploads.S3.Bucket)
	str("SOCIAL_S3_REGION", &c.Uploads.S3.Region)
	str("SOCIAL_S3_ENDPOINT", &c.Uploads.S3.Endpoint)
	str("SOCIAL_S3_PREFIX", &c.Uploads.S3.Prefix)
	str("SOCIAL_S3_ACCESS_KEY_ID", &c.Uploads.S3.AccessKeyID)
	str("SOCIAL_S3_SECRET_ACCESS_KEY", &c.Uploads.S3.SecretAccessKey)

	if v, ok := os.LookupEnv("SOCIAL_SESSION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SOCIAL_SESSION_TTL: %w", err)
		}
		c.Session.TTL = Duration(d)
	}
	if v, ok := os.LookupEnv("SOCIAL_BCRYPT_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SOCIAL_BCRYPT_COST: %w", err)
		}
		c.Security.BcryptCost = n
	}
	if v, ok := os.LookupEnv("SOCIAL_MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SOCIAL_MAX_UPLOAD_BYTES: %w", err)
		}
		c.Uploads.MaxBytes = n
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Uploads.Backend {
	case BackendLocal:
		if c.Uploads.Dir == "" {
			return errors.New("uploads.dir is required for the local backend")
		}
	case BackendS3:
		if c.Uploads.S3.Bucket == "" {
			return errors.New("uploads.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown uploads backend %q", c.Uploads.Backend)
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Session.CookieName == "" {
		return errors.New("session.cookie_name is required")
	}
	if c.Database.Path == "" {
		return errors.New("db.path is required")
	}
	if c.Uploads.MaxBytes <= 0 {
		return errors.New("uploads.max_bytes must be positive")
	}
	// bcrypt.MinCost and bcrypt.MaxCost
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("security.bcrypt_cost %d out of range", c.Security.BcryptCost)
	}
	return nil
}
