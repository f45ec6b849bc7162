//go:build linux

package core

import (
	"golang.org/x/sys/unix"
)

// setWorkerNiceness nudges a worker's OS thread priority down slightly
// so that a burst of CPU-bound jobs cannot starve the process's own
// idle-handler polling (netpoll-equivalent, timers) on a loaded host.
// Failure is silently ignored: this is a scheduling hint, not a
// correctness requirement, and an unprivileged process may not be
// allowed to renice itself at all.
func setWorkerNiceness() {
	tid := unix.Gettid()
	_ = unix.Setpriority(unix.PRIO_PROCESS, tid, 1)
}
