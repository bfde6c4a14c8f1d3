package simulation

import "time"

// Worker configuration constants.
const (
	workerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	// settleDelay pushes the ranking request past the event end so the
	// server sees the event as concluded.
	settleDelay       = 50 * time.Millisecond
	defaultVenue      = "Simulation Hall"
	reportPermission  = 0o600
	directoryCreation = 0o750
)
