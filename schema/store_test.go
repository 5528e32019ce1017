package schema

import (
	"path/filepath"
	"testing"

	"github.com/erpc/rpccheck/common"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestStore_LoadFallbacks(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/schemas"
	writeFile(t, fs, filepath.Join(dir, "eth_chainId"), `{"type":"string"}`)
	writeFile(t, fs, filepath.Join(dir, "eth_blockNumber.json"), `{"type":"string","pattern":"^0x"}`)
	writeFile(t, fs, filepath.Join(dir, "eth_getBalance.yaml"), "type: string\n")
	writeFile(t, fs, filepath.Join(dir, "eth_gasPrice.yml"), "type: string\n")
	writeFile(t, fs, filepath.Join(dir, "net_version"), "type: string\n")

	store := NewStore(fs, dir)
	for method, path := range map[string]string{
		"eth_chainId":     "eth_chainId",
		"eth_blockNumber": "eth_blockNumber.json",
		"eth_getBalance":  "eth_getBalance.yaml",
		"eth_gasPrice":    "eth_gasPrice.yml",
		"net_version":     "net_version",
	} {
		doc, err := store.Load(method)
		require.NoError(t, err, method)
		assert.Equal(t, method, doc.Name)
		assert.Equal(t, filepath.Join(dir, path), doc.Path)
		_, err = Compile(doc.Body)
		assert.NoError(t, err, method)
	}
}

func TestStore_BareNameWins(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/s/eth_call", `{"title":"bare"}`)
	writeFile(t, fs, "/s/eth_call.json", `{"title":"json"}`)

	doc, err := NewStore(fs, "/s").Load("eth_call")
	require.NoError(t, err)
	assert.Equal(t, "/s/eth_call", doc.Path)
}

func TestStore_Missing(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/s/eth_call", 0o755))
	store := NewStore(fs, "/s")

	for _, method := range []string{"eth_call", "eth_unknown", "", "../etc/passwd", ".hidden"} {
		_, err := store.Load(method)
		assert.True(t, common.HasErrorCode(err, common.ErrCodeSchemaNotFound), method)
	}
}

func TestStore_ReloadsEveryCall(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/s/eth_chainId.json", `{"type":"string"}`)
	store := NewStore(fs, "/s")

	doc, err := store.Load("eth_chainId")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"string"}`, mustString(t, doc.Body))

	writeFile(t, fs, "/s/eth_chainId.json", `{"type":"integer"}`)
	doc, err = store.Load("eth_chainId")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"integer"}`, mustString(t, doc.Body))
}

func TestStore_Malformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/s/eth_call.json", `{"type":`)

	_, err := NewStore(fs, "/s").Load("eth_call")
	assert.True(t, common.HasErrorCode(err, common.ErrCodeInvalidSchema))
	assert.True(t, common.HasErrorCode(err, common.ErrCodeInvalidDocument))
}

func TestStore_Methods(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/s/eth_call.json", `{}`)
	writeFile(t, fs, "/s/eth_call.yaml", `{}`)
	writeFile(t, fs, "/s/eth_chainId", `{}`)
	writeFile(t, fs, "/s/.keep", ``)

	methods, err := NewStore(fs, "/s").Methods()
	require.NoError(t, err)
	assert.Equal(t, []string{"eth_call", "eth_chainId"}, methods)

	methods, err = NewStore(fs, "/nowhere").Methods()
	require.NoError(t, err)
	assert.Empty(t, methods)
}
