package schema

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/erpc/rpccheck/common"
	"github.com/erpc/rpccheck/nested"
	"github.com/erpc/rpccheck/softassert"
	"github.com/erpc/rpccheck/telemetry"
	"github.com/erpc/rpccheck/util"
	"github.com/rs/zerolog"
)

type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

type Result struct {
	Method  string
	Status  Status
	Outcome Outcome
}

func (r Result) Passed() bool {
	return r.Status == StatusPassed
}

// Checker validates responses against the schema registered for their method.
type Checker struct {
	logger  *zerolog.Logger
	store   *Store
	ledger  *softassert.Ledger
	output  io.Writer
	palette util.Palette
}

type CheckerOption func(*Checker)

// WithLedger records every failed check into l.
func WithLedger(l *softassert.Ledger) CheckerOption {
	return func(c *Checker) { c.ledger = l }
}

func WithOutput(w io.Writer) CheckerOption {
	return func(c *Checker) { c.output = w }
}

func WithPalette(p util.Palette) CheckerOption {
	return func(c *Checker) { c.palette = p }
}

func NewChecker(logger *zerolog.Logger, store *Store, opts ...CheckerOption) *Checker {
	c := &Checker{
		logger:  logger,
		store:   store,
		output:  os.Stdout,
		palette: util.DetectPalette(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateTypeByScheme validates data against the schema stored for method.
// When key is given, only the first part of the schema found under that key
// is used. A missing or empty schema skips the check with a warning.
func (c *Checker) ValidateTypeByScheme(data any, method string, key ...string) Result {
	return c.ValidateTypeBySchemeAt(softassert.Caller(1), data, method, key...)
}

// ValidateTypeBySchemeAt is ValidateTypeByScheme with failures attributed to loc.
func (c *Checker) ValidateTypeBySchemeAt(loc softassert.Location, data any, method string, key ...string) Result {
	start := time.Now()
	res := c.check(loc, data, method, key...)
	telemetry.CounterHandle(telemetry.MetricSchemaValidationTotal, method, string(res.Status)).Inc()
	telemetry.ObserverHandle(telemetry.MetricSchemaValidationDuration, method).Observe(time.Since(start).Seconds())
	return res
}

func (c *Checker) check(loc softassert.Location, data any, method string, key ...string) Result {
	lg := c.logger.With().Str("method", method).Logger()

	doc, err := c.store.Load(method)
	if err != nil && !common.HasErrorCode(err, common.ErrCodeSchemaNotFound) {
		lg.Error().Err(err).Msg("failed to load schema")
		return c.fail(loc, method, Outcome{Narrowed: data, Err: err})
	}
	if err != nil || isEmptySchema(doc.Body) {
		lg.Warn().Str("dir", c.store.Dir()).Msg("no schema found, skipping type check")
		fmt.Fprintln(c.output, c.palette.Warning("Warning: There is no schema to compare with. Json data type validation was not done"))
		return Result{Method: method, Status: StatusSkipped, Outcome: Outcome{Narrowed: data}}
	}

	body := doc.Body
	if len(key) > 0 && key[0] != "" {
		body, err = nested.First(key[0], doc.Body)
		if err != nil {
			err = common.NewErrInvalidSchema(fmt.Sprintf("schema %s has no part under key '%s'", doc.Path, key[0]), err)
			lg.Error().Err(err).Msg("failed to narrow schema")
			return c.fail(loc, method, Outcome{Narrowed: data, Err: err})
		}
	}

	fmt.Fprintf(c.output, "Check schema for %s\n", method)
	out := Validate(data, body)
	if out.Passed {
		lg.Debug().Str("schema", doc.Path).Msg("data types are correct")
		fmt.Fprintln(c.output, c.palette.Success("Data types are correct"))
		return Result{Method: method, Status: StatusPassed, Outcome: out}
	}

	lg.Warn().Err(out.Err).Str("schema", doc.Path).Msg("data types are incorrect")
	return c.fail(loc, method, out)
}

func (c *Checker) fail(loc softassert.Location, method string, out Outcome) Result {
	if c.ledger != nil {
		c.ledger.ExpectAt(loc, softassert.That(false), fmt.Sprintf("%s: %v", method, out.Err), out.Narrowed)
	}
	fmt.Fprintln(c.output, c.palette.Failed("Data types are incorrect according to schema\n"+nested.MustString(out.Narrowed)))
	return Result{Method: method, Status: StatusFailed, Outcome: out}
}

func isEmptySchema(body any) bool {
	switch nested.KindOf(body) {
	case nested.KindNull:
		return true
	case nested.KindMapping:
		return nested.Len(body) == 0
	}
	return false
}
