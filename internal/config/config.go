package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret        string
		TokenTTLMinutes  int
		MaxLoginAttempts int
		LockMinutes      int
		SecureCookies    bool
	}
	RateLimit struct {
		LoginMax      int
		WindowMinutes int
	}
	CORS struct {
		AllowOrigins []string
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	// .env values never override variables already set in the environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TUNEDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/tunedeck.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 60)
	v.SetDefault("auth.maxloginattempts", 5)
	v.SetDefault("auth.lockminutes", 30)
	v.SetDefault("auth.securecookies", false)
	v.SetDefault("ratelimit.loginmax", 5)
	v.SetDefault("ratelimit.windowminutes", 15)
	v.SetDefault("cors.alloworigins", []string{"*"})
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "tunedeck-media")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}
