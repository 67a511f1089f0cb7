package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads env files in priority order: .env.<APP_ENV>, then
// .env.local, then .env. godotenv.Load never overwrites variables that
// are already set, so OS environment always wins and earlier files win
// over later ones. Returns the files that were actually loaded.
func LoadDotEnv() []string {
	candidates := []string{".env.local", ".env"}
	if env := os.Getenv("APP_ENV"); env != "" {
		candidates = append([]string{fmt.Sprintf(".env.%s", env)}, candidates...)
	}

	var loaded []string
	for _, f := range candidates {
		if err := godotenv.Load(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	return loaded
}
