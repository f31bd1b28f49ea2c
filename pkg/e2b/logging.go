package e2b

import (
	"log"
	"os"
)

// debugLogger is the package-level logger consulted on the request and
// sandbox-lifecycle paths, gated on Config.Debug.
var debugLogger = log.New(os.Stderr, "e2b: ", log.LstdFlags)

// logf writes to debugLogger only when cfg.Debug is set.
func logf(cfg *Config, format string, args ...any) {
	if cfg != nil && cfg.Debug {
		debugLogger.Printf(format, args...)
	}
}
