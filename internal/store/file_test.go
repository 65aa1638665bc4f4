package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStore(t *testing.T) {
	dir := t.TempDir()

	tok, err := NewFileTokenStore(filepath.Join(dir, "missing.json")).Read()
	require.NoError(t, err)
	assert.Nil(t, tok)

	tok, err = NewFileTokenStore("").Read()
	require.NoError(t, err)
	assert.Nil(t, tok)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"access_token":"  "}`), 0o600))
	tok, err = NewFileTokenStore(empty).Read()
	require.NoError(t, err)
	assert.Nil(t, tok)

	good := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"access_token":"gho_abc","token_type":"bearer"}`), 0o600))
	tok, err = NewFileTokenStore(good).Read()
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "gho_abc", tok.AccessToken)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`not json`), 0o600))
	_, err = NewFileTokenStore(bad).Read()
	assert.Error(t, err)
}
