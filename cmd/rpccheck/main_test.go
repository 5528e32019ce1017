package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/erpc/rpccheck/util"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mainMutex sync.Mutex

func init() {
	util.ConfigureTestLogger()
}

const workingSamples = `[
  {
    "request": {"jsonrpc": "2.0", "id": 1, "method": "eth_chainId", "params": []},
    "response": {"jsonrpc": "2.0", "id": 1, "result": "0x1"}
  },
  {
    "request": {"jsonrpc": "2.0", "id": 2, "method": "eth_blockNumber", "params": []},
    "response": {"jsonrpc": "2.0", "id": 2, "result": 12}
  }
]`

func writeFixture(t *testing.T, fs afero.Fs, dir string, cases string) string {
	t.Helper()
	cfg := `
logLevel: debug
color: never
schemasDir: ` + filepath.Join(dir, "schemas") + `
samples:
  - ` + filepath.Join(dir, "samples.json") + `
cases:
` + cases
	files := map[string]string{
		"rpccheck.yaml":                cfg,
		"samples.json":                 workingSamples,
		"schemas/eth_chainId.json":     `{"type": "string", "pattern": "^0x[0-9a-f]+$"}`,
		"schemas/eth_blockNumber.json": `{"type": "string"}`,
		"block.json":                   `{"jsonrpc": "2.0", "id": 7, "result": "0x10"}`,
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, name), []byte(content), 0o644))
	}
	return filepath.Join(dir, "rpccheck.yaml")
}

func TestRun_AllCasesPass(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeFixture(t, fs, "/work", "  - method: eth_chainId\n")

	var out bytes.Buffer
	code := Run(context.Background(), fs, []string{"rpccheck", "--config", path}, &out)

	assert.Equal(t, util.ExitCodeOK, code)
	assert.Contains(t, out.String(), "Data types are correct")
	assert.Contains(t, out.String(), "1 passed, 0 failed, 0 skipped")
}

func TestRun_PositionalConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeFixture(t, fs, "/work", "  - method: eth_chainId\n")

	var out bytes.Buffer
	code := Run(context.Background(), fs, []string{"rpccheck", path}, &out)

	assert.Equal(t, util.ExitCodeOK, code)
}

func TestRun_ConformanceFailures(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeFixture(t, fs, "/work", "  - method: eth_chainId\n  - method: eth_blockNumber\n")

	var out bytes.Buffer
	code := Run(context.Background(), fs, []string{"rpccheck", "--config", path}, &out)

	assert.Equal(t, util.ExitCodeConformanceFailures, code)
	assert.Contains(t, out.String(), "Data types are incorrect according to schema")
	assert.Contains(t, out.String(), "1 passed, 1 failed, 0 skipped")
}

func TestRun_FlagOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeFixture(t, fs, "/work", "  - method: eth_blockNumber\n")
	require.NoError(t, afero.WriteFile(fs, "/lenient/eth_blockNumber.json", []byte(`{"type": "integer"}`), 0o644))

	var out bytes.Buffer
	code := Run(context.Background(), fs, []string{"rpccheck", "--config", path, "--schemas", "/lenient", "--no-color"}, &out)

	assert.Equal(t, util.ExitCodeOK, code)
	assert.NotContains(t, out.String(), "\x1b[")
}

func TestRun_StartFailures(t *testing.T) {
	cases := []struct {
		name  string
		setup func(fs afero.Fs) []string
	}{
		{
			name: "MissingConfig",
			setup: func(fs afero.Fs) []string {
				return []string{"rpccheck", "--config", "/nowhere/rpccheck.yaml"}
			},
		},
		{
			name: "InvalidYaml",
			setup: func(fs afero.Fs) []string {
				_ = afero.WriteFile(fs, "/work/rpccheck.yaml", []byte("cases: ["), 0o644)
				return []string{"rpccheck", "--config", "/work/rpccheck.yaml"}
			},
		},
		{
			name: "InvalidLogLevel",
			setup: func(fs afero.Fs) []string {
				_ = afero.WriteFile(fs, "/work/rpccheck.yaml", []byte("logLevel: loud\n"), 0o644)
				return []string{"rpccheck", "--config", "/work/rpccheck.yaml"}
			},
		},
		{
			name: "MissingSamplesFile",
			setup: func(fs afero.Fs) []string {
				_ = afero.WriteFile(fs, "/work/rpccheck.yaml", []byte("samples: [/work/gone.json]\ncases:\n  - method: eth_chainId\n"), 0o644)
				return []string{"rpccheck", "--config", "/work/rpccheck.yaml"}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			args := tc.setup(fs)

			var out bytes.Buffer
			assert.Equal(t, util.ExitCodeStartFailed, Run(context.Background(), fs, args, &out))
		})
	}
}

func TestRun_CheckCommand(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeFixture(t, fs, "/work", "  - method: eth_chainId\n")

	t.Run("ResultMemberPasses", func(t *testing.T) {
		var out bytes.Buffer
		code := Run(context.Background(), fs, []string{"rpccheck", "--config", path, "check", "--result", "eth_chainId", "/work/block.json"}, &out)

		assert.Equal(t, util.ExitCodeOK, code)
		assert.Contains(t, out.String(), "Check schema for eth_chainId")
	})

	t.Run("WholeDocumentFails", func(t *testing.T) {
		var out bytes.Buffer
		code := Run(context.Background(), fs, []string{"rpccheck", "--config", path, "check", "eth_chainId", "/work/block.json"}, &out)

		assert.Equal(t, util.ExitCodeConformanceFailures, code)
	})

	t.Run("UnknownMethodIsSkipped", func(t *testing.T) {
		var out bytes.Buffer
		code := Run(context.Background(), fs, []string{"rpccheck", "--config", path, "check", "eth_unknown", "/work/block.json"}, &out)

		assert.Equal(t, util.ExitCodeOK, code)
		assert.Contains(t, out.String(), "There is no schema to compare with")
	})

	t.Run("MissingArguments", func(t *testing.T) {
		var out bytes.Buffer
		code := Run(context.Background(), fs, []string{"rpccheck", "--config", path, "check", "eth_chainId"}, &out)

		assert.Equal(t, util.ExitCodeStartFailed, code)
	})

	t.Run("UnreadableDocument", func(t *testing.T) {
		var out bytes.Buffer
		code := Run(context.Background(), fs, []string{"rpccheck", "--config", path, "check", "eth_chainId", "/work/missing.json"}, &out)

		assert.Equal(t, util.ExitCodeStartFailed, code)
	})
}

func TestRun_SchemasCommand(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeFixture(t, fs, "/work", "  - method: eth_chainId\n")

	var out bytes.Buffer
	code := Run(context.Background(), fs, []string{"rpccheck", "--config", path, "schemas"}, &out)

	assert.Equal(t, util.ExitCodeOK, code)
	assert.Equal(t, "eth_blockNumber\neth_chainId\n", out.String())

	out.Reset()
	code = Run(context.Background(), fs, []string{"rpccheck", "--config", path, "schemas", "eth_c*"}, &out)
	assert.Equal(t, util.ExitCodeOK, code)
	assert.Equal(t, "eth_chainId\n", out.String())
}

func TestRun_OnlyFlag(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeFixture(t, fs, "/work", "  - method: eth_chainId\n  - method: eth_blockNumber\n")

	var out bytes.Buffer
	code := Run(context.Background(), fs, []string{"rpccheck", "--config", path, "--only", "!eth_blockNumber"}, &out)

	assert.Equal(t, util.ExitCodeOK, code)
	assert.Contains(t, out.String(), "1 passed, 0 failed, 1 skipped")
}

func TestMain_ExitCodes(t *testing.T) {
	mainMutex.Lock()
	defer mainMutex.Unlock()

	var codes []int
	originalOsExit := util.OsExit
	util.OsExit = func(code int) { codes = append(codes, code) }
	originalArgs := os.Args
	defer func() {
		util.OsExit = originalOsExit
		os.Args = originalArgs
	}()

	fs := afero.NewOsFs()
	dir, err := afero.TempDir(fs, "", "rpccheck")
	require.NoError(t, err)
	defer fs.RemoveAll(dir)
	require.NoError(t, fs.MkdirAll(filepath.Join(dir, "schemas"), 0o755))

	passing := writeFixture(t, fs, dir, "  - method: eth_chainId\n")
	os.Args = []string{"rpccheck-test", "--config", passing}
	main()
	assert.Empty(t, codes, "a passing run must not call exit")

	failing := writeFixture(t, fs, dir, "  - method: eth_blockNumber\n")
	os.Args = []string{"rpccheck-test", "--config", failing}
	main()

	os.Args = []string{"rpccheck-test", "--config", filepath.Join(dir, "missing.yaml")}
	main()

	assert.Equal(t, []int{util.ExitCodeConformanceFailures, util.ExitCodeStartFailed}, codes)
}
