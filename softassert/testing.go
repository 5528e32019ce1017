package softassert

import (
	"errors"
	"io"

	"github.com/erpc/rpccheck/common"
	"github.com/erpc/rpccheck/util"
)

// TB is the part of testing.TB that Run needs.
type TB interface {
	Helper()
	Error(args ...any)
}

// Run gives fn a fresh ledger and reports every failure it recorded through
// t.Error once fn returns.
func Run(t TB, fn func(l *Ledger), opts ...Option) {
	t.Helper()
	l := New(append([]Option{
		WithWriter(io.Discard),
		WithOutput(io.Discard),
		WithPalette(util.PlainPalette()),
	}, opts...)...)
	fn(l)
	err := l.Flush()
	if err == nil {
		return
	}
	var agg *common.ErrAggregatedFailure
	if errors.As(err, &agg) {
		t.Error(agg.Report + "\n\n" + err.Error())
		return
	}
	t.Error(err)
}
