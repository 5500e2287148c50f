//go:build windows

package report

import "os/exec"

// OpenInBrowser opens the report in the default browser. Failures are
// returned for logging but are never fatal to the run.
func OpenInBrowser(path string) error {
	return exec.Command("rundll32", "url.dll,FileProtocolHandler", path).Start()
}
