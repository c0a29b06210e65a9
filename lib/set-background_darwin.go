//go:build darwin
// +build darwin

package aiwallpaperlib

import (
	"fmt"
	"os/exec"
	"strconv"
	"syscall"
)

var sysProcAttr = &syscall.SysProcAttr{}

// Tools returns the macOS setters in preference order. AppleScript ships
// with the OS so auto mode always has a fallback here.
func Tools() []Tool {
	return []Tool{
		{
			Name:      "wallpaper-cli",
			Available: func() bool { return lookPathOK("wallpaper") },
			Set:       setWallpaperCLI,
		},
		{
			Name:      "m-cli",
			Available: func() bool { return lookPathOK("m") },
			Set:       setMCLI,
		},
		{
			Name:      "applescript",
			Available: func() bool { return lookPathOK("osascript") },
			Set:       setAppleScript,
		},
	}
}

func lookPathOK(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// wallpaper-cli counts screens from 0.
func setWallpaperCLI(path string, display int) error {
	cmd := exec.Command(
		"wallpaper", path, "--screen="+strconv.Itoa(display-1))
	cmd.SysProcAttr = sysProcAttr
	return cmd.Run()
}

func setMCLI(path string, display int) error {
	cmd := exec.Command(
		"m", "wallpaper", path, "--display", strconv.Itoa(display))
	cmd.SysProcAttr = sysProcAttr
	return cmd.Run()
}

func setAppleScript(path string, display int) error {
	script := fmt.Sprintf(`
		tell application "System Events"
			tell desktop %d
				set picture to %q
			end tell
		end tell
	`, display, path)

	cmd := exec.Command("osascript", "-e", script)
	cmd.SysProcAttr = sysProcAttr
	return cmd.Run()
}

// RefreshDesktop nudges the Dock to repaint. Cosmetic, failures are
// ignored.
func RefreshDesktop() {
	_ = exec.Command("killall", "Dock").Run()
}

// No-op outside Windows.
func AttachParentConsole() {}
