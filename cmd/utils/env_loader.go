package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvFileFlagName = "env-file"
	envFileEnvVar   = "ENV_FILE"
)

// LoadEnvFile loads environment variables from a file, before the config options read them.
// Priority: --env-file in args > ENV_FILE environment variable > .env in working directory
func LoadEnvFile(args []string) error {
	if envFilePath := determineEnvFilePath(args); envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return fmt.Errorf("loading env file %s: %w", envFilePath, err)
		}
		return nil
	}

	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env file: %w", err)
	}
	return nil
}

func determineEnvFilePath(args []string) string {
	path := parseEnvFileFlag(args)
	if path == "" {
		path = os.Getenv(envFileEnvVar)
	}
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func parseEnvFileFlag(args []string) string {
	flag := "--" + EnvFileFlagName
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
		if value, found := strings.CutPrefix(arg, flag+"="); found {
			return value
		}
	}
	return ""
}
