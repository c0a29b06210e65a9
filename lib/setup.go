package aiwallpaperlib

import (
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// ToolStatus is the result of probing one setter tool at startup.
type ToolStatus struct {
	Name      string
	Available bool
}

// ProbeTools checks each setter for this platform once. The result feeds
// both setup mode and the "optional dependency" feature flags.
func ProbeTools() []ToolStatus {
	var statuses []ToolStatus
	for _, t := range Tools() {
		statuses = append(statuses, ToolStatus{
			Name:      t.Name,
			Available: t.Available(),
		})
	}
	return statuses
}

// installer can put a missing tool on the system, when the platform offers
// a sane way to do that.
type installer struct {
	tool string
	cmd  []string
}

// Setup verifies the external dependencies, installing missing tools where
// installers exist. It errors only when no tool and no fallback is usable,
// the single fatal condition of setup mode.
func Setup() error {
	statuses := ProbeTools()

	usable := 0
	for _, s := range statuses {
		if s.Available {
			log.Printf("Tool %s is ready", s.Name)
			usable++
		} else {
			log.Printf("Tool %s is not installed", s.Name)
		}
	}

	if usable == 0 {
		if installed := runInstallers(); installed > 0 {
			usable = installed
		}
	}

	if usable == 0 {
		var names []string
		for _, s := range statuses {
			names = append(names, s.Name)
		}
		return fmt.Errorf(
			"No usable wallpaper tool, install one of: %s",
			strings.Join(names, ", "))
	}

	log.Println("Setup complete")
	return nil
}

func runInstallers() int {
	byName := map[string]Tool{}
	for _, t := range Tools() {
		byName[t.Name] = t
	}

	installed := 0
	for _, in := range installers() {
		t, ok := byName[in.tool]
		if !ok || t.Available() {
			continue
		}

		log.Printf("Installing %s...", in.tool)
		cmd := exec.Command(in.cmd[0], in.cmd[1:]...)
		cmd.SysProcAttr = sysProcAttr
		if err := cmd.Run(); err != nil {
			log.Printf("Failed to install %s: %v", in.tool, err)
			continue
		}

		if t.Available() {
			log.Printf("Tool %s installed successfully", in.tool)
			installed++
		}
	}

	return installed
}
