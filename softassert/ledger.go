// Package softassert collects failed expectations during a test run and
// reports them together instead of stopping at the first one.
package softassert

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/erpc/rpccheck/common"
	"github.com/erpc/rpccheck/nested"
	"github.com/erpc/rpccheck/telemetry"
	"github.com/erpc/rpccheck/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FailureRecord describes one failed expectation. Records are never modified
// after they are appended.
type FailureRecord struct {
	Message  string
	Data     any
	HasData  bool
	Location Location
	Err      error
}

type Ledger struct {
	mu      sync.Mutex
	records []FailureRecord

	writer  io.Writer
	output  io.Writer
	palette util.Palette
	logger  *zerolog.Logger
}

type Option func(*Ledger)

// WithWriter sets where Flush writes the aggregated report. Defaults to stderr.
func WithWriter(w io.Writer) Option {
	return func(l *Ledger) { l.writer = w }
}

// WithOutput sets where failing expectations are echoed as they happen. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(l *Ledger) { l.output = w }
}

func WithPalette(p util.Palette) Option {
	return func(l *Ledger) { l.palette = p }
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		writer:  os.Stderr,
		output:  os.Stdout,
		palette: util.DetectPalette(),
		logger:  &log.Logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.writer == nil {
		l.writer = io.Discard
	}
	if l.output == nil {
		l.output = io.Discard
	}
	return l
}

// Expect records a failure attributed to its caller when cond does not hold.
// It returns whether cond held.
func (l *Ledger) Expect(cond Condition, msg string, data ...any) bool {
	return l.ExpectAt(Caller(1), cond, msg, data...)
}

// ExpectAt is Expect with an explicit location, for helpers that want
// failures attributed to their own callers.
func (l *Ledger) ExpectAt(loc Location, cond Condition, msg string, data ...any) bool {
	ok, err := cond.evaluate()
	if ok {
		return true
	}

	rec := FailureRecord{Message: msg, Location: loc, Err: err}
	if err != nil {
		if msg != "" {
			rec.Message = msg + ": " + err.Error()
		} else {
			rec.Message = err.Error()
		}
	}
	switch len(data) {
	case 0:
	case 1:
		rec.Data, rec.HasData = data[0], true
	default:
		rec.Data, rec.HasData = data, true
	}

	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()

	telemetry.MetricSoftAssertionFailuresTotal.Inc()
	l.logger.Warn().
		Str("file", loc.base()).
		Int("line", loc.Line).
		Str("function", loc.Function).
		Err(err).
		Msg(rec.Message)
	fmt.Fprintf(l.output, "\n\t%s\n\n", l.palette.Failed(rec.Message))
	return false
}

// Len returns the number of failures recorded since the last report.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Records returns a copy of the pending failures.
func (l *Ledger) Records() []FailureRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]FailureRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Ledger) drain() []FailureRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	recs := l.records
	l.records = nil
	return recs
}

// Report formats all pending failures, numbered from 1 in the order they were
// recorded, and empties the ledger. It returns "" when nothing failed.
func (l *Ledger) Report() string {
	return l.format(l.drain())
}

func (l *Ledger) format(recs []FailureRecord) string {
	if len(recs) == 0 {
		return ""
	}
	p := l.palette
	lines := make([]string, 0, len(recs)+1)
	lines = append(lines, p.Failed(fmt.Sprintf("Failed Expectations: %d\n", len(recs))))
	for i, rec := range recs {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d:\t", i+1)
		sb.WriteString(p.Failed("Failed at "))
		sb.WriteString(p.BlueUnderline(fmt.Sprintf("%q", rec.Location.String())))
		sb.WriteString(p.Failed(fmt.Sprintf(", in %s()\n\t", rec.Location.Function)))
		sb.WriteString(p.FailedUnderline("ErrorMessage"))
		body := ": " + rec.Message
		if rec.HasData {
			body += "\n " + nested.MustString(rec.Data)
		}
		sb.WriteString(p.Failed(body))
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

// Flush reports and clears pending failures. When any were recorded the
// report is written to the ledger's writer and an aggregated error is returned.
func (l *Ledger) Flush() error {
	recs := l.drain()
	if len(recs) == 0 {
		return nil
	}
	report := l.format(recs)
	if _, err := io.WriteString(l.writer, report+"\n"); err != nil {
		l.logger.Error().Err(err).Msg("could not write soft assertion report")
	}
	l.logger.Debug().Int("failures", len(recs)).Msg("flushed soft assertion ledger")
	return common.NewErrAggregatedFailure(len(recs), report)
}

// Scope runs fn and flushes afterwards. When fn returns an error or panics the
// flush is skipped and that outcome propagates; pending failures stay recorded.
func (l *Ledger) Scope(fn func(*Ledger) error) error {
	if err := fn(l); err != nil {
		return err
	}
	return l.Flush()
}
