package main

import "os"

func logsDisabled() bool {
	return os.Getenv("RPCCHECK_NOLOGS") == "1"
}
