//go:build windows
// +build windows

package aiwallpaperlib

// DetectDisplays counts attached monitors through IDesktopWallpaper.
// Detached-but-known monitors are already filtered out; any COM failure
// falls back to a single display.
func DetectDisplays() int {
	paths, err := monitorDevicePaths()
	if err != nil || len(paths) == 0 {
		return 1
	}
	return len(paths)
}
