// Package config resolves runtime settings from the process environment,
// seeding it from a local .env file when one exists.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config returns the value of an environment variable, loading .env first
// so local development does not need exported variables.
func Config(key string) string {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️ No .env file found, falling back to the process environment")
	}

	return os.Getenv(key)
}
