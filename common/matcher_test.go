package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileMethodFilter(t *testing.T) {
	tests := []struct {
		name    string
		filter  string
		method  string
		want    bool
		wantErr bool
	}{
		{name: "empty filter matches everything", filter: "", method: "eth_call", want: true},
		{name: "exact", filter: "eth_call", method: "eth_call", want: true},
		{name: "exact mismatch", filter: "eth_call", method: "eth_chainId", want: false},
		{name: "wildcard", filter: "eth_get*", method: "eth_getLogs", want: true},
		{name: "single char wildcard", filter: "eth_get?ogs", method: "eth_getLogs", want: true},
		{name: "or", filter: "eth_call | eth_chainId", method: "eth_chainId", want: true},
		{name: "or without spaces", filter: "eth_call|eth_chainId", method: "eth_call", want: true},
		{name: "and not", filter: "eth_get* & !eth_getLogs", method: "eth_getLogs", want: false},
		{name: "and not other", filter: "eth_get* & !eth_getLogs", method: "eth_getBalance", want: true},
		{name: "parentheses", filter: "(debug_* | trace_*) & !*Block*", method: "trace_transaction", want: true},
		{name: "parentheses excluded", filter: "(debug_* | trace_*) & !*Block*", method: "trace_replayBlockTransactions", want: false},
		{name: "double negation", filter: "!!eth_*", method: "eth_call", want: true},
		{name: "dangling or", filter: "eth_call |", wantErr: true},
		{name: "leading and", filter: "& eth_call", wantErr: true},
		{name: "unclosed parenthesis", filter: "(eth_call", wantErr: true},
		{name: "unmatched parenthesis", filter: "eth_call)", wantErr: true},
		{name: "dangling not", filter: "eth_call & !", wantErr: true},
		{name: "adjacent terms", filter: "(eth_call) (eth_chainId)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := CompileMethodFilter(tt.filter)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, match(tt.method))
		})
	}
}
