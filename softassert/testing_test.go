package softassert

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingTB struct {
	errors []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Error(args ...any) {
	r.errors = append(r.errors, fmt.Sprint(args...))
}

func TestRun(t *testing.T) {
	t.Run("passing block reports nothing", func(t *testing.T) {
		rec := &recordingTB{}
		Run(rec, func(l *Ledger) {
			l.Expect(That(true), "fine")
		})
		assert.Empty(t, rec.errors)
	})

	t.Run("failures reported once", func(t *testing.T) {
		rec := &recordingTB{}
		Run(rec, func(l *Ledger) {
			l.Expect(That(false), "first")
			l.Expect(That(false), "second")
		})
		if assert.Len(t, rec.errors, 1) {
			assert.Contains(t, rec.errors[0], "Failed Expectations: 2")
			assert.Contains(t, rec.errors[0], "ErrorMessage: first")
			assert.Contains(t, rec.errors[0], "ErrorMessage: second")
		}
	})
}
