package config

import (
	"os"
	"strconv"
	"time"
)

type Twitter struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Dispatch struct {
	Interval    time.Duration
	BatchSize   int
	StaleAfter  time.Duration
	SweepEvery  time.Duration
	PostTimeout time.Duration
}

type Config struct {
	DatabaseURL string
	RedisURI    string
	Port        string
	Twitter     Twitter
	R2          R2
	Dispatch    Dispatch
}

func LoadConfig() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURI:    getEnv("REDIS_URI", "localhost:6379"),
		Port:        getEnv("PORT", "3000"),
		Twitter: Twitter{
			ClientID:     getEnv("TWITTER_CLIENT_ID", ""),
			ClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
			AccessToken:  getEnv("TWITTER_ACCESS_TOKEN", ""),
			RefreshToken: getEnv("TWITTER_REFRESH_TOKEN", ""),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Dispatch: Dispatch{
			Interval:    getEnvDuration("DISPATCH_INTERVAL", time.Minute),
			BatchSize:   getEnvInt("DISPATCH_BATCH_SIZE", 100),
			StaleAfter:  getEnvDuration("STALE_SENDING_AFTER", 10*time.Minute),
			SweepEvery:  getEnvDuration("STALE_SWEEP_INTERVAL", 5*time.Minute),
			PostTimeout: getEnvDuration("POST_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
