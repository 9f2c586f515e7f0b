// Package log provides leveled logging for the planexec runtime.
//
// The default logger writes to stderr through the standard library;
// GologLogger adapts a kataras/golog instance for applications that
// already use it. Components take the package-level logger unless one is
// injected.
package log
