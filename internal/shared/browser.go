package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// openCommand returns the platform launcher for a file or URL.
func openCommand(target string) (*exec.Cmd, error) {
	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", target), nil
	case "linux":
		return exec.Command("xdg-open", target), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}

// Open hands a file or URL to the platform's default viewer without waiting for it.
//
// Supports macOS, Linux, and Windows platforms.
func Open(target string) error {
	cmd, err := openCommand(target)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}

	return nil
}
