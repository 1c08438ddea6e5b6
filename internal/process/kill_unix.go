//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// Detach places cmd in its own process group so that KillProcessGroup can
// take down the renderer together with the browser it spawns.
func Detach(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best-effort; the caller still waits on the direct child.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
