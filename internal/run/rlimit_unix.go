//go:build linux || darwin

package run

import (
	"runtime"

	"golang.org/x/sys/unix"

	"proctor/internal/config"
)

// IncreaseProcessLimit raises the soft process limit before the pool
// starts. Threads count toward the limit on Linux, so heavily threaded
// tests can exhaust an otherwise reasonable default. Any failure leaves
// the limit alone.
func IncreaseProcessLimit(workers int, diag *config.Diagnostics) {
	desired := uint64(workers) * uint64(runtime.NumCPU()) * 2

	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NPROC, &limit); err != nil {
		return
	}
	if desired > limit.Max {
		desired = limit.Max
	}
	if limit.Cur >= desired {
		return
	}

	previous := limit.Cur
	limit.Cur = desired
	if err := unix.Setrlimit(unix.RLIMIT_NPROC, &limit); err != nil {
		return
	}
	diag.Note("raised the process limit from %d to %d", previous, desired)
}
