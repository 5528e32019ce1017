//go:build !test

package main

import (
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	// Honour RPCCHECK_NOLOGS=1 to silence all zerolog output
	if logsDisabled() {
		zerolog.SetGlobalLevel(zerolog.Disabled)
		log.Logger = zerolog.New(io.Discard)
	}

	// Honour RPCCHECK_NOMETRICS=1 to keep counters off the default registry
	if os.Getenv("RPCCHECK_NOMETRICS") == "1" {
		r := prometheus.NewRegistry()
		prometheus.DefaultRegisterer = r
		prometheus.DefaultGatherer = r
	}
}
