//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package logger

func isTerminal(uintptr) bool { return false }
