package logging

import (
	"log"
	"os"
)

var (
	disabled = false
	logger   = log.New(os.Stderr, "", log.LstdFlags)
)

// Disable turns off all logging (quiet CLI output).
func Disable() {
	disabled = true
}

// Enable turns logging back on.
func Enable() {
	disabled = false
}

// Infof logs a formatted info message.
func Infof(format string, v ...any) {
	if !disabled {
		logger.Printf(format, v...)
	}
}

// Warnf logs a formatted warning message.
func Warnf(format string, v ...any) {
	if !disabled {
		logger.Printf("WARN "+format, v...)
	}
}

// Errorf logs a formatted error message.
func Errorf(format string, v ...any) {
	if !disabled {
		logger.Printf("ERROR "+format, v...)
	}
}

// Scoped is a logger bound to a subsystem prefix, e.g. "[observer]".
// Pipeline stages log per-node recoverable conditions through these so a
// noisy page still shows which stage gave up on which element.
type Scoped struct {
	prefix string
}

// Scope creates a Scoped logger for the given subsystem name.
func Scope(name string) Scoped {
	return Scoped{prefix: "[" + name + "] "}
}

// Infof logs a formatted info message with the scope prefix.
func (s Scoped) Infof(format string, v ...any) {
	Infof(s.prefix+format, v...)
}

// Warnf logs a formatted warning message with the scope prefix.
func (s Scoped) Warnf(format string, v ...any) {
	Warnf(s.prefix+format, v...)
}

// Errorf logs a formatted error message with the scope prefix.
func (s Scoped) Errorf(format string, v ...any) {
	Errorf(s.prefix+format, v...)
}
