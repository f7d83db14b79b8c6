// Package open launches a rendered document in the user's browser or
// default application.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// InBrowser opens path with the platform's default handler. The command is
// fire-and-forget; a browser that fails after starting is not reported.
func InBrowser(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return cmd.Process.Release()
}
