//go:build linux
// +build linux

package aiwallpaperlib

import (
	"errors"
	"os"
	"os/exec"
	"os/user"
	"syscall"
)

var sysProcAttr = &syscall.SysProcAttr{}

const dbusAddress = "DBUS_SESSION_BUS_ADDRESS"

// gsettings talks to the session bus; scheduled runs usually don't have the
// address exported. Assume per-user dbus sessions for now.
func setDBUSAddress() error {
	if os.Getenv(dbusAddress) != "" {
		return nil
	}

	u, err := user.Current()
	if err != nil || u.Uid == "" {
		return errors.New("cannot determine session bus address")
	}
	return os.Setenv(dbusAddress, "unix:path=/run/user/"+u.Uid+"/bus")
}

// Tools returns the Linux setters in preference order. Neither tool
// supports per-display targeting, so the image lands on every display; the
// queue still generates a distinct image per display for platforms that do.
func Tools() []Tool {
	return []Tool{
		{
			Name: "gsettings",
			Available: func() bool {
				return lookPathOK("gsettings") && desktopEnv() == gnome
			},
			Set: setGnomeWallpaper,
		},
		{
			Name:      "feh",
			Available: func() bool { return lookPathOK("feh") },
			Set:       setFehWallpaper,
		},
	}
}

func lookPathOK(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func setGnomeWallpaper(path string, _ int) error {
	if err := setDBUSAddress(); err != nil {
		return err
	}

	cmd := exec.Command("gsettings", "set",
		"org.gnome.desktop.background", "picture-options", "zoom")
	cmd.SysProcAttr = sysProcAttr
	if err := cmd.Run(); err != nil {
		return err
	}

	cmd = exec.Command("gsettings", "set",
		"org.gnome.desktop.background", "picture-uri", "file://"+path)
	cmd.SysProcAttr = sysProcAttr
	return cmd.Run()
}

func setFehWallpaper(path string, _ int) error {
	cmd := exec.Command("feh", "--bg-fill", path)
	cmd.SysProcAttr = sysProcAttr
	return cmd.Run()
}

// RefreshDesktop is a no-op here; gsettings and feh both apply immediately.
func RefreshDesktop() {}

// No-op outside Windows.
func AttachParentConsole() {}
