package aiwallpaperlib

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoUsableTool means no wallpaper tool is installed at all. That is a
// machine-level problem, not a per-display one; callers abort the run and
// point the user at setup.
var ErrNoUsableTool = errors.New("No usable wallpaper tool found")

// AutoTool walks the platform's tool list in preference order instead of
// requiring a specific one.
const AutoTool = "auto"

// Tool is one way of setting a wallpaper on this platform. Set succeeds when
// the underlying process exits 0. Display indices are 1-based; tools that
// count from 0 translate internally.
type Tool struct {
	Name      string
	Available func() bool
	Set       func(path string, display int) error
}

// ToolNames lists the valid --tool values for this platform.
func ToolNames() []string {
	names := []string{AutoTool}
	for _, t := range Tools() {
		names = append(names, t.Name)
	}
	return names
}

func selectTools(requested string) ([]Tool, error) {
	all := Tools()
	if requested == "" || requested == AutoTool {
		return all, nil
	}

	for _, t := range all {
		if t.Name == requested {
			return []Tool{t}, nil
		}
	}

	return nil, fmt.Errorf(
		"Unknown tool [%s], valid tools: %s",
		requested, strings.Join(ToolNames(), ", "))
}

// ValidTool rejects tool names this platform doesn't have, so bad flags fail
// before any generation work happens.
func ValidTool(requested string) error {
	_, err := selectTools(requested)
	return err
}

// SetWallpaper sets path as the background of the given display using the
// requested tool, or the first usable tool in preference order for "auto".
// Failing every tool is a per-display error the caller recovers from.
func SetWallpaper(path string, display int, requested string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("Wallpaper file missing [%s]: %w", abs, err)
	}
	if !fi.Mode().IsRegular() || fi.Size() == 0 {
		return fmt.Errorf("Wallpaper file [%s] is empty or not regular", abs)
	}

	tools, err := selectTools(requested)
	if err != nil {
		return err
	}

	tried := 0
	for _, t := range tools {
		if !t.Available() {
			continue
		}
		tried++

		if err = t.Set(abs, display); err != nil {
			log.Printf("Tool %s failed for display %d: %v", t.Name, display, err)
			continue
		}

		log.Printf("Set wallpaper for display %d using %s", display, t.Name)
		return nil
	}

	if tried == 0 {
		return fmt.Errorf(
			"%w, run setup or install one of: %s",
			ErrNoUsableTool, strings.Join(ToolNames()[1:], ", "))
	}

	return fmt.Errorf("All wallpaper tools failed for display %d", display)
}
