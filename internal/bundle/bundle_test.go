package bundle

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZip(t *testing.T) {
	data, err := Zip([]byte("cv-bytes"), []byte("letter-bytes"))
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, r.File, 2)

	got := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		got[f.Name] = string(b)
	}
	assert.Equal(t, map[string]string{
		"Resume.pdf":       "cv-bytes",
		"Cover Letter.pdf": "letter-bytes",
	}, got)
}
