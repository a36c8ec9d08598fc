package application

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	// AppName is the application name used for directories and identification
	AppName = "reposync"

	// Version is reported by the version command
	Version = "0.1.0"

	// ConfigFileName is the TOML config file looked up in the application directory
	ConfigFileName = "reposync.toml"

	// EnvFileName is the dotenv file looked up in the application directory
	EnvFileName = ".env"
)

var (
	once   sync.Once
	appDir string
	errDir error
)

// GetApplicationDirectory returns the reposync data directory path.
// Linux: ~/.config/reposync (via os.UserConfigDir)
// Windows: C:\Users\{username}\AppData\Local\reposync (via os.UserCacheDir)
func GetApplicationDirectory() (string, error) {
	once.Do(lazyLoad)

	if errDir != nil {
		return "", errDir
	}

	return appDir, errDir
}

func lazyLoad() {
	var (
		baseDir string
		err     error
	)

	switch runtime.GOOS {
	case "windows":
		baseDir, err = os.UserCacheDir()
	default:
		baseDir, err = os.UserConfigDir()
	}

	if err != nil {
		errDir = fmt.Errorf("failed to get config directory: %w", err)
		return
	}

	appDir = filepath.Join(baseDir, AppName)
}
