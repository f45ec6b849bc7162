//go:build !linux

package core

// setWorkerNiceness is a no-op outside Linux; unix.Setpriority has no
// portable equivalent in the other platforms these workers might run on.
func setWorkerNiceness() {}
