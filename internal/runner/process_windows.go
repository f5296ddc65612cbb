//go:build windows

package runner

import (
	"os"
	"os/exec"
	"syscall"
)

// configureProcAttr starts the test command in a new process group so it
// can be terminated independently of the runner's own console group.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// killProcessGroup terminates the test process. Windows has no direct
// equivalent of signalling a Unix process group, so the process itself is
// killed and descendants are left to the job teardown.
func killProcessGroup(pid int, _ syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
