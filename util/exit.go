package util

import "os"

const (
	ExitCodeOK                  = 0
	ExitCodeConformanceFailures = 1
	ExitCodeStartFailed         = 2
)

// OsExit is swapped in tests to observe exit codes without terminating the process.
var OsExit = os.Exit
