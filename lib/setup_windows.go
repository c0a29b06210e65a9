//go:build windows
// +build windows

package aiwallpaperlib

// IDesktopWallpaper ships with the OS, nothing to install.
func installers() []installer {
	return nil
}
