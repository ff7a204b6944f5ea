package engine

import (
	"fmt"
	"os"
)

// StartupChecks performs all the checks to make sure everything works
func (serverHandler *ServerHandler) StartupChecks() error {
	return publicDirectoryChecks(serverHandler.ServerConfig.PublicPath)
}

// publicDirectoryChecks ensures the directory documents are served from exists
func publicDirectoryChecks(publicPath string) error {
	if publicPath == "" {
		Logger.Warn("Public path not configured")
		return nil
	}

	info, err := os.Stat(publicPath)
	if err != nil {
		if os.IsNotExist(err) {
			Logger.Info("Creating public directory", "path", publicPath)
			err = os.MkdirAll(publicPath, 0755)
			if err != nil {
				Logger.Error("Failed to create public directory", "path", publicPath, "error", err)
				return err
			}
			Logger.Info("Public directory created successfully", "path", publicPath)
			return nil
		}
		Logger.Error("Error checking public directory", "path", publicPath, "error", err)
		return err
	}

	if !info.IsDir() {
		Logger.Error("Public path exists but is not a directory", "path", publicPath)
		return fmt.Errorf("public path is not a directory: %s", publicPath)
	}

	Logger.Info("Public directory exists", "path", publicPath)
	return nil
}
