//go:build darwin
// +build darwin

package aiwallpaperlib

import (
	"os/exec"
	"strings"
)

// DetectDisplays counts connected displays with system_profiler. Any
// failure falls back to a single display rather than aborting the run.
func DetectDisplays() int {
	out, err := exec.Command(
		"system_profiler", "SPDisplaysDataType").Output()
	if err != nil {
		return 1
	}

	count := strings.Count(string(out), "Resolution:")
	if count < 1 {
		return 1
	}
	return count
}
