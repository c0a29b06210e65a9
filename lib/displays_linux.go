//go:build linux
// +build linux

package aiwallpaperlib

import (
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
)

type environment int

const (
	gnome environment = iota
	unknown
)

var displayRE = regexp.MustCompile(`^:[0-9]+`)

// Trims individual screens out of an X11 DISPLAY variable.
func trimDisplay(display string) string {
	trimmed := displayRE.FindString(display)
	if trimmed != "" {
		return trimmed
	}
	return display
}

// True if it's definitely a local X session.
func testXSession(display string) bool {
	_, err := os.Stat("/tmp/.X11-unix/X" + strings.TrimLeft(display, ":"))
	return err == nil
}

func xConnect() (*xgbutil.XUtil, error) {
	// Stop polluting stdout
	xgb.Logger.SetOutput(io.Discard)
	xgbutil.Logger.SetOutput(io.Discard)

	d := trimDisplay(os.Getenv("DISPLAY"))
	if d == "" || !testXSession(d) {
		return nil, os.ErrNotExist
	}

	return xgbutil.NewConnDisplay(d)
}

// DetectDisplays counts active RandR CRTCs on the current X session. Zero
// active outputs, Wayland, or any X error falls back to a single display.
func DetectDisplays() int {
	X, err := xConnect()
	if err != nil {
		return 1
	}
	defer X.Conn().Close()

	Xgb := X.Conn()
	if err = randr.Init(Xgb); err != nil {
		return 1
	}

	root := xproto.Setup(Xgb).DefaultScreen(Xgb).Root
	resources, err := randr.GetScreenResources(Xgb, root).Reply()
	if err != nil {
		return 1
	}

	count := 0
	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(Xgb, crtc, 0).Reply()
		if err != nil {
			continue
		}
		if info.Width > 0 && info.Height > 0 {
			count++
		}
	}

	if count < 1 {
		return 1
	}
	return count
}

// desktopEnv sniffs the window manager so the setter can prefer gsettings
// under GNOME and feh everywhere else.
func desktopEnv() environment {
	X, err := xConnect()
	if err != nil {
		return unknown
	}
	defer X.Conn().Close()

	wm, err := ewmh.GetEwmhWM(X)
	if err != nil {
		return unknown
	}

	if strings.Contains(strings.ToLower(wm), "gnome") {
		return gnome
	}
	return unknown
}
