package internal

import (
	"fmt"
	"log"
	"runtime"

	"github.com/joho/godotenv"

	"github.com/DevRickLin/telegram-relay-bridge/internal/conf"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
)

// LoadConfig reads .env when present, then the process environment
func LoadConfig() (*conf.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return conf.LoadFromEnv()
}

// GetVersion returns the version string
func GetVersion() string {
	return version
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	return buildTime, runtime.Version()
}
