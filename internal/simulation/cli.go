package simulation

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/hackathon/pkg/logger"
)

const logFilePermission = 0o600

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging initialises the logger and, when logFile is set, mirrors
// output to it.
func SetupLogging(logFile string) (io.Closer, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if logFile == "" {
		return nopCloser{}, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.SetOutput(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Hackathon Simulator
===================

Drives one complete hackathon against a running server: signups, team
formation, judge invitations, submissions, votes, evaluations and the
final ranking, then checks the ranking against the votes it cast.

The server's registration gap must not exceed -gap.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string          Base URL of the service (default "http://localhost:9080")
  -teams int           Number of teams (default 8)
  -team-size int       Members per team, founder included (default 3)
  -judges int          Number of judges (default 3)
  -workers int         Concurrent workers (default CPU cores * 2)
  -timeout duration    HTTP request timeout (default 10s)
  -registration dur    Registration window (default 10s)
  -gap duration        Time between registration end and event start (default 0s)
  -event duration      Event window (default 5s)
  -output string       Write a JSON report to this file
  -log string          Mirror log output to this file
  -verbose             Enable debug logging
  -help                Show this help message

Examples:
  HACKATHON_REGISTRATION_GAP_HOURS=0 HACKATHON_SHORT_REGISTRATION_GAP=true go run ./cmd
  go run ./cmd/simulate -teams 20 -judges 5 -output report.json
`)
}
