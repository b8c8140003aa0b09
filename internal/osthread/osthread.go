// Package osthread identifies the OS thread running the caller. Results are
// only meaningful while the calling goroutine is locked with
// runtime.LockOSThread.
package osthread
