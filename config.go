package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	JwtSecret     string
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

func MustLoadConfig() *Config {
	godotenv.Load()
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		panic("JWT_SECRET is not provided!")
	}
	idleTimeout := durationFromEnv("ROOM_IDLE_TIMEOUT", 30*time.Minute)
	sweepInterval := durationFromEnv("ROOM_SWEEP_INTERVAL", 5*time.Minute)
	return &Config{port, jwtSecret, idleTimeout, sweepInterval}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
