//go:build darwin
// +build darwin

package aiwallpaperlib

// AppleScript always exists as a fallback, so these are conveniences, not
// requirements.
func installers() []installer {
	return []installer{
		{tool: "wallpaper-cli", cmd: []string{"npm", "install", "-g", "wallpaper-cli"}},
		{tool: "m-cli", cmd: []string{"brew", "install", "m-cli"}},
	}
}
