package runtime

import (
	"mcserve/errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestCensoredLoader_Load(t *testing.T) {
	req := require.New(t)
	fsys := fstest.MapFS{
		"words.txt": {Data: []byte("creeper\r\n# comment\n\n  griefer \ncreeper\n")},
		"empty.txt": {Data: []byte("\n# nothing\n")},
	}
	loader := NewCensoredLoader(fsys)

	// When a word file is loaded
	data, err := loader.Load("words.txt")

	// Then words are trimmed and deduplicated
	req.NoError(err)
	req.ElementsMatch([]string{"creeper", "griefer"}, data.Words)
	req.Equal(5, data.Lines)

	// When the file has no word
	_, err = loader.Load("empty.txt")
	req.ErrorIs(err, errors.ErrEmptyWords)

	// When the file does not exist
	_, err = loader.Load("missing.txt")
	req.Error(err)
}
