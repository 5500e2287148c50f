//go:build !windows

package report

import (
	"os/exec"
	"runtime"
)

// OpenInBrowser opens the report in the default browser. Failures are
// returned for logging but are never fatal to the run.
func OpenInBrowser(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}
