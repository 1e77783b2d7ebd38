package framesrc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCounterCSV(t *testing.T) {
	t.Parallel()

	in := `frame,counter
# recorded by the digit reader
0,1
1,
2, 1
4,2
`
	cf, err := ParseCounterCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 3, cf.Len())

	tests := []struct {
		frame int64
		want  int
		ok    bool
	}{
		{0, 1, true},
		{1, 0, false},
		{2, 1, true},
		{3, 0, false},
		{4, 2, true},
	}
	for _, tt := range tests {
		v, ok := cf.ReadCounter(tt.frame, nil)
		assert.Equal(t, tt.ok, ok, "frame %d", tt.frame)
		assert.Equal(t, tt.want, v, "frame %d", tt.frame)
	}
}

func TestParseCounterCSV_Errors(t *testing.T) {
	t.Parallel()

	for name, in := range map[string]string{
		"bad frame":   "0,1\nx,2\n",
		"bad counter": "0,one\n",
		"short row":   "0\n",
	} {
		in := in
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCounterCSV(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestLoadCounterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.csv")
	require.NoError(t, os.WriteFile(path, []byte("10,3\n"), 0644))

	cf, err := LoadCounterFile(path)
	require.NoError(t, err)
	v, ok := cf.ReadCounter(10, nil)
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, err = LoadCounterFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
