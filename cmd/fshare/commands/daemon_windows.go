//go:build windows

package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// isProcessRunning reads a PID from pidPath and reports whether that process
// exists. FindProcess fails on Windows when it does not.
func isProcessRunning(pidPath string) (int, bool) {
	pidData, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	_ = process.Release()
	return pid, true
}

// startDaemon is not supported on Windows.
func startDaemon() error {
	return fmt.Errorf("daemon mode is not supported on Windows, use --foreground")
}
