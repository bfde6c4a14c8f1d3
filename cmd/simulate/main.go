package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/hackathon/internal/simulation"
	"github.com/okian/hackathon/pkg/logger"
)

// Default configuration constants.
const (
	defaultTeams        = 8
	defaultTeamSize     = 3
	defaultJudges       = 3
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 10 * time.Second
	defaultRegistration = 10 * time.Second
	defaultEvent        = 5 * time.Second
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		teams        = flag.Int("teams", defaultTeams, "Number of teams")
		teamSize     = flag.Int("team-size", defaultTeamSize, "Members per team, founder included")
		judges       = flag.Int("judges", defaultJudges, "Number of judges")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		registration = flag.Duration("registration", defaultRegistration, "Registration window")
		gap          = flag.Duration("gap", 0, "Time between registration end and event start")
		event        = flag.Duration("event", defaultEvent, "Event window")
		outputFile   = flag.String("output", "", "Write a JSON report to this file")
		logFile      = flag.String("log", "", "Mirror log output to this file")
		verbose      = flag.Bool("verbose", false, "Enable debug logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulation.ShowHelp()
		return
	}

	closer, err := simulation.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &simulation.Config{
		BaseURL:            *baseURL,
		Teams:              *teams,
		TeamSize:           *teamSize,
		Judges:             *judges,
		Workers:            *workers,
		Timeout:            *timeout,
		RegistrationWindow: *registration,
		Gap:                *gap,
		EventWindow:        *event,
		OutputFile:         *outputFile,
		Verbose:            *verbose,
	}
	if _, err := simulation.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
