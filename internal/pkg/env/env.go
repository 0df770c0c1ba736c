package env

import (
	"os"

	"github.com/joho/godotenv"
)

var fileEnv map[string]string

// GetEnv returns the value for key, preferring real environment variables
// (Docker/CI) over the loaded .env file, falling back to def.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if val, ok := fileEnv[key]; ok {
		return val
	}
	return def
}

// SetupEnvFile loads a .env file if one exists. Missing files are fine:
// container deployments provide everything through the environment.
func SetupEnvFile() {
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/mapper to project root
		"../../../.env", // Fallback for deeper nesting
	}

	for _, envFile := range envFiles {
		if parsed, err := godotenv.Read(envFile); err == nil {
			fileEnv = parsed
			return
		}
	}
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
