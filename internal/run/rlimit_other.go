//go:build !(linux || darwin)

package run

import "proctor/internal/config"

// IncreaseProcessLimit is a no-op on platforms without a process rlimit.
func IncreaseProcessLimit(workers int, diag *config.Diagnostics) {}
