package cliconfig

import (
	"os"

	"github.com/bft-labs/csvship/pkg/log"
)

// NewLogger returns the console logger used by the CLI, writing to stderr.
func NewLogger(level string) (*log.ZerologAdapter, error) {
	return log.NewConsoleLogger(os.Stderr, level)
}
