package config

import (
	"os"
	"path/filepath"
)

// DefaultBaseDir returns the default local backup directory
func DefaultBaseDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "idcvault")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.idcvault" // Fallback to current directory
	}

	return filepath.Join(homeDir, ".idcvault")
}

// AWSCredentialsConfigured reports whether static credentials or shared AWS
// config files are present. SSO and instance roles are not detected here.
func AWSCredentialsConfigured() bool {
	if os.Getenv("AWS_ACCESS_KEY_ID") != "" && os.Getenv("AWS_SECRET_ACCESS_KEY") != "" {
		return true
	}
	if os.Getenv("AWS_PROFILE") != "" || os.Getenv("AWS_WEB_IDENTITY_TOKEN_FILE") != "" {
		return true
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return false
	}

	awsConfigPaths := []string{
		filepath.Join(homeDir, ".aws", "credentials"),
		filepath.Join(homeDir, ".aws", "config"),
	}

	for _, path := range awsConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}

	return false
}
