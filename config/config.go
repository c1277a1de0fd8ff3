package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Minio    MinioConfig    `yaml:"minio"`
	Detector DetectorConfig `yaml:"detector"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Invites  InviteConfig   `yaml:"invites"`
	Users    []User         `yaml:"users"`
}

type ServerConfig struct {
	Port            int   `yaml:"port"`
	MaxUploadSizeMB int64 `yaml:"max_upload_size_mb"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

type MinioConfig struct {
	Endpoint            string `yaml:"endpoint"`
	AccessKey           string `yaml:"access_key"`
	SecretKey           string `yaml:"secret_key"`
	Bucket              string `yaml:"bucket"`
	UseSSL              bool   `yaml:"use_ssl"`
	UploadExpireMinutes int    `yaml:"upload_expire_minutes"`
	DownloadExpireDays  int    `yaml:"download_expire_days"`
}

type DetectorConfig struct {
	APIURL              string `yaml:"api_url"`
	APIToken            string `yaml:"api_token"`
	CallbackSeed        string `yaml:"callback_seed"`
	DemoMode            bool   `yaml:"demo_mode"`
	UploadWaitSeconds   int    `yaml:"upload_wait_seconds"`
	UploadPollIntervalS int    `yaml:"upload_poll_interval_seconds"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type InviteConfig struct {
	ExpireDays int `yaml:"expire_days"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadSizeMB == 0 {
		cfg.Server.MaxUploadSizeMB = 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Minio.UploadExpireMinutes == 0 {
		cfg.Minio.UploadExpireMinutes = 15
	}
	if cfg.Minio.DownloadExpireDays == 0 {
		cfg.Minio.DownloadExpireDays = 7
	}
	if cfg.Detector.UploadWaitSeconds == 0 {
		cfg.Detector.UploadWaitSeconds = 300
	}
	if cfg.Detector.UploadPollIntervalS == 0 {
		cfg.Detector.UploadPollIntervalS = 5
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Invites.ExpireDays == 0 {
		cfg.Invites.ExpireDays = 7
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}

// FindUserByEmail finds a user by email
func (c *Config) FindUserByEmail(email string) *User {
	for i := range c.Users {
		if c.Users[i].Email == email {
			return &c.Users[i]
		}
	}
	return nil
}
