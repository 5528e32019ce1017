package harness

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/erpc/rpccheck/common"
	"github.com/erpc/rpccheck/nested"
	"github.com/spf13/afero"
)

// Sample is one recorded request/response exchange. Files hold a list of
// {"request": {...}, "response": {...}} entries.
type Sample struct {
	Source   string
	Index    int
	Method   string
	Request  any
	Response any
}

// LoadSamples reads every sample file in order. JSON is expected unless the
// file has a .yaml or .yml extension.
func LoadSamples(fs afero.Fs, paths ...string) ([]*Sample, error) {
	var samples []*Sample
	for _, path := range paths {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read sample file: %w", err)
		}

		var doc any
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			doc, err = nested.DecodeYAML(data)
		default:
			doc, err = nested.Decode(data)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode samples from %s: %w", path, err)
		}
		if nested.KindOf(doc) != nested.KindSequence {
			return nil, common.NewErrInvalidDocument("samples", fmt.Errorf("%s must contain a list of samples", path))
		}

		for i, entry := range nested.Elements(doc) {
			s, err := parseSample(entry)
			if err != nil {
				return nil, common.NewErrInvalidDocument("samples", fmt.Errorf("%s entry %d: %w", path, i+1, err))
			}
			s.Source = path
			s.Index = i
			samples = append(samples, s)
		}
	}
	return samples, nil
}

func parseSample(entry any) (*Sample, error) {
	req, ok := nested.Lookup(entry, "request")
	if !ok || nested.KindOf(req) != nested.KindMapping {
		return nil, fmt.Errorf("missing request object")
	}
	method, _ := nested.Lookup(req, "method")
	m, ok := method.(string)
	if !ok || m == "" {
		return nil, fmt.Errorf("request has no method")
	}
	resp, ok := nested.Lookup(entry, "response")
	if !ok || nested.KindOf(resp) != nested.KindMapping {
		return nil, fmt.Errorf("missing response object")
	}
	return &Sample{Method: m, Request: req, Response: resp}, nil
}

func findMatchingSample(samples []*Sample, method string) *Sample {
	for _, sample := range samples {
		if sample.Method == method {
			return sample
		}
	}
	return nil
}
