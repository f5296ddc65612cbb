//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// configureProcAttr places the test command in its own process group so a
// timeout or interrupt can kill the command together with anything it
// spawned.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// killProcessGroup signals the whole process group. The negative PID
// addresses the group; if that fails the process is signalled directly.
func killProcessGroup(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(-pid, sig); err != nil {
		return syscall.Kill(pid, sig)
	}
	return nil
}
