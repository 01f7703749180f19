package qlearn_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/qlearn"
)

func TestKeyRoundTrip(t *testing.T) {
	keys := []qlearn.StateKey{
		{VBin: 0, HBin: 0, Dir: qlearn.DirVertical},
		{VBin: 4, HBin: 2, Dir: qlearn.DirHorizontal},
		{VBin: 1, HBin: 3, Dir: qlearn.DirVertical},
	}
	for _, k := range keys {
		parsed, err := qlearn.ParseKey(qlearn.FormatKey(k))
		assert.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "1,2", "1,2,3,4", "a,b,c", "1,2,x", "(1, 2, 0)"} {
		_, err := qlearn.ParseKey(s)
		assert.Error(t, err, "key=%q", s)
	}
}

func TestParseKeyAcceptsSpaces(t *testing.T) {
	k, err := qlearn.ParseKey("1, 2, 0")
	assert.NoError(t, err)
	assert.Equal(t, qlearn.StateKey{VBin: 1, HBin: 2, Dir: 0}, k)
}

func TestTableSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q_table.json")
	table := qlearn.Table{
		{VBin: 1, HBin: 2, Dir: qlearn.DirVertical}:   &qlearn.ActionValues{Stay: 0.25, Switch: -1.5},
		{VBin: 0, HBin: 4, Dir: qlearn.DirHorizontal}: &qlearn.ActionValues{Stay: 0, Switch: 3},
	}
	assert.NoError(t, qlearn.SaveTable(path, table))

	loaded, err := qlearn.LoadTable(path)
	assert.NoError(t, err)
	assert.Len(t, loaded, 2)
	for k, v := range table {
		assert.Equal(t, *v, *loaded[k])
	}
}

func TestLoadTableMissingFile(t *testing.T) {
	_, err := qlearn.LoadTable(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadTableCorruptKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q_table.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"not a key": {"stay": 1}}`), 0o644))
	_, err := qlearn.LoadTable(path)
	assert.Error(t, err)
}
