package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	BallSpeed      int
	WinningScore   int
	CountdownSecs  int
	TickIntervalMs int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] No .env file found, using environment")
	}
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		BallSpeed:      getEnvInt("BALL_SPEED", 5),
		WinningScore:   getEnvInt("WINNING_SCORE", 5),
		CountdownSecs:  getEnvInt("COUNTDOWN_SECS", 3),
		TickIntervalMs: getEnvInt("TICK_INTERVAL_MS", 16),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
