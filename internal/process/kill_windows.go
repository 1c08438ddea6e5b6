//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// Detach is a no-op on Windows; taskkill /T walks the process tree instead.
func Detach(cmd *exec.Cmd) {}

// KillProcessGroup kills a process and all its children using taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
func KillProcessGroup(pid int) {
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
