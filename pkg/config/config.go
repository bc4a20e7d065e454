package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	ImageHostCloudinary = "cloudinary"
	ImageHostGCS        = "gcs"
)

type Config struct {
	ServerPort     string
	Environment    string
	AllowedOrigins []string

	FirebaseProject            string
	FirebaseAPIKey             string
	FirebaseServiceAccountJSON string
	FirebaseServiceAccountPath string

	ImageHost     string
	Cloudinary    CloudinaryConfig
	StorageBucket string
	MaxPhotoBytes int64

	ReportRatePerMinute int
	ReportRateBurst     int

	LogLevel  string
	LogFormat string
}

type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
	Folder       string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		ServerPort:     v.GetString("SERVER_PORT"),
		Environment:    v.GetString("ENVIRONMENT"),
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),

		FirebaseProject:            v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseAPIKey:             v.GetString("FIREBASE_API_KEY"),
		FirebaseServiceAccountJSON: v.GetString("FIREBASE_SERVICE_ACCOUNT_JSON"),
		FirebaseServiceAccountPath: v.GetString("FIREBASE_SERVICE_ACCOUNT_PATH"),

		ImageHost: strings.ToLower(v.GetString("IMAGE_HOST")),
		Cloudinary: CloudinaryConfig{
			CloudName:    v.GetString("CLOUDINARY_CLOUD_NAME"),
			APIKey:       v.GetString("CLOUDINARY_API_KEY"),
			APISecret:    v.GetString("CLOUDINARY_API_SECRET"),
			UploadPreset: v.GetString("CLOUDINARY_UPLOAD_PRESET"),
			Folder:       v.GetString("CLOUDINARY_FOLDER"),
		},
		StorageBucket: v.GetString("STORAGE_BUCKET"),
		MaxPhotoBytes: v.GetInt64("MAX_PHOTO_BYTES"),

		ReportRatePerMinute: v.GetInt("REPORT_RATE_PER_MINUTE"),
		ReportRateBurst:     v.GetInt("REPORT_RATE_BURST"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENVIRONMENT", EnvDevelopment)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("IMAGE_HOST", ImageHostCloudinary)
	v.SetDefault("CLOUDINARY_FOLDER", "lost_items")
	v.SetDefault("MAX_PHOTO_BYTES", 5*1024*1024)
	v.SetDefault("REPORT_RATE_PER_MINUTE", 10)
	v.SetDefault("REPORT_RATE_BURST", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")
}

// Validate reports the first setting the server cannot start without.
func (c *Config) Validate() error {
	if c.FirebaseProject == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.FirebaseAPIKey == "" {
		return errors.New("FIREBASE_API_KEY is required for password sign-in")
	}
	switch c.ImageHost {
	case ImageHostCloudinary:
		if c.Cloudinary.CloudName == "" || c.Cloudinary.APIKey == "" || c.Cloudinary.APISecret == "" {
			return errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required")
		}
	case ImageHostGCS:
		if c.StorageBucket == "" {
			return errors.New("STORAGE_BUCKET is required when IMAGE_HOST=gcs")
		}
	default:
		return fmt.Errorf("unsupported IMAGE_HOST %q", c.ImageHost)
	}
	if c.MaxPhotoBytes <= 0 {
		return errors.New("MAX_PHOTO_BYTES must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
