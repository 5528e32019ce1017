// Package harness runs configured conformance cases against recorded
// JSON-RPC responses.
package harness

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/erpc/rpccheck/common"
	"github.com/erpc/rpccheck/nested"
	"github.com/erpc/rpccheck/schema"
	"github.com/erpc/rpccheck/softassert"
	"github.com/erpc/rpccheck/telemetry"
	"github.com/erpc/rpccheck/util"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

type CaseResult struct {
	Name     string
	Method   string
	Status   schema.Status
	Schema   schema.Status
	Failures int
}

type Report struct {
	Cases   []*CaseResult
	Passed  int
	Failed  int
	Skipped int
}

type Suite struct {
	logger  *zerolog.Logger
	cases   []*common.CaseConfig
	only    common.MethodMatcher
	samples []*Sample
	store   *schema.Store
	ledger  *softassert.Ledger
	output  io.Writer
	palette util.Palette
}

type Option func(*Suite)

func WithOutput(w io.Writer) Option {
	return func(s *Suite) { s.output = w }
}

func WithPalette(p util.Palette) Option {
	return func(s *Suite) { s.palette = p }
}

// WithLedger overrides the ledger failures are collected into.
func WithLedger(l *softassert.Ledger) Option {
	return func(s *Suite) { s.ledger = l }
}

// NewSuite loads the samples and schema directory referenced by cfg.
func NewSuite(logger *zerolog.Logger, fs afero.Fs, cfg *common.Config, opts ...Option) (*Suite, error) {
	only, err := common.CompileMethodFilter(cfg.Only)
	if err != nil {
		return nil, common.NewErrInvalidConfig(err.Error())
	}
	samples, err := LoadSamples(fs, cfg.Samples...)
	if err != nil {
		return nil, err
	}
	s := &Suite{
		logger:  logger,
		cases:   cfg.Cases,
		only:    only,
		samples: samples,
		store:   schema.NewStore(fs, cfg.SchemasDir),
		output:  os.Stdout,
		palette: util.DetectPalette(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ledger == nil {
		s.ledger = softassert.New(
			softassert.WithLogger(logger),
			softassert.WithOutput(s.output),
			softassert.WithPalette(s.palette),
		)
	}
	logger.Debug().Int("samples", len(samples)).Int("cases", len(s.cases)).Str("schemasDir", cfg.SchemasDir).Msg("conformance suite initialized")
	return s, nil
}

// Run executes every case and flushes the ledger once at the end. The
// returned error is an *common.ErrAggregatedFailure when any expectation
// failed, or the context error when the run was interrupted.
func (s *Suite) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	checker := schema.NewChecker(s.logger, s.store,
		schema.WithLedger(s.ledger),
		schema.WithOutput(s.output),
		schema.WithPalette(s.palette),
	)

	err := s.ledger.Scope(func(l *softassert.Ledger) error {
		for _, c := range s.cases {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := s.runCase(l, checker, c)
			report.Cases = append(report.Cases, res)
			switch res.Status {
			case schema.StatusPassed:
				report.Passed++
			case schema.StatusFailed:
				report.Failed++
			case schema.StatusSkipped:
				report.Skipped++
			}
			telemetry.CounterHandle(telemetry.MetricCaseTotal, c.Method, string(res.Status)).Inc()
		}
		return nil
	})

	s.logger.Info().
		Int("passed", report.Passed).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("conformance run finished")
	return report, err
}

func (s *Suite) runCase(l *softassert.Ledger, checker *schema.Checker, c *common.CaseConfig) *CaseResult {
	res := &CaseResult{Name: c.Name, Method: c.Method, Schema: schema.StatusSkipped}
	lg := s.logger.With().Object("case", c).Logger()

	if c.Skip || !s.only(c.Method) {
		lg.Info().Msg("case skipped")
		fmt.Fprintln(s.output, s.palette.Warning(fmt.Sprintf("Skipping %s", c.Name)))
		res.Status = schema.StatusSkipped
		return res
	}
	fmt.Fprintln(s.output, s.palette.Info(fmt.Sprintf("Case %s (%s)", c.Name, c.Method)))

	before := l.Len()
	defer func() {
		res.Failures = l.Len() - before
		if res.Failures > 0 {
			res.Status = schema.StatusFailed
		} else {
			res.Status = schema.StatusPassed
		}
		lg.Debug().Int("failures", res.Failures).Str("status", string(res.Status)).Msg("case finished")
	}()

	sample := findMatchingSample(s.samples, c.Method)
	if !l.ExpectAt(softassert.Location{File: "samples", Function: c.Name}, softassert.That(sample != nil),
		common.NewErrSampleNotFound(c.Method).Error()) {
		return res
	}
	loc := softassert.Location{File: sample.Source, Line: sample.Index + 1, Function: c.Name}

	errMember, hasErr := nested.Lookup(sample.Response, "error")
	l.ExpectAt(loc, softassert.That(!hasErr || errMember == nil),
		fmt.Sprintf("%s returned an error", c.Method), errMember)

	result, hasResult := nested.Lookup(sample.Response, "result")
	if l.ExpectAt(loc, softassert.That(hasResult), fmt.Sprintf("%s response has no result", c.Method)) {
		if c.Key == "" {
			res.Schema = checker.ValidateTypeBySchemeAt(loc, result, c.SchemaName()).Status
		} else if part, err := nested.First(c.Key, result); err != nil {
			l.ExpectAt(loc, softassert.That(false), fmt.Sprintf("%s: result: %v", c.Method, err))
		} else {
			res.Schema = checker.ValidateTypeBySchemeAt(loc, part, c.SchemaName(), c.Key).Status
		}
	}

	keys := make([]string, 0, len(c.Expect))
	for k := range c.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		want := c.Expect[k]
		got, err := nested.First(k, sample.Response)
		if err != nil {
			l.ExpectAt(loc, softassert.That(false), fmt.Sprintf("%s: %v", c.Method, err))
			continue
		}
		l.ExpectAt(loc, softassert.That(nested.Equal(got, want)),
			fmt.Sprintf("%s: expected %s to be %s, got %s", c.Method, k, nested.MustString(want), nested.MustString(got)))
	}
	return res
}
