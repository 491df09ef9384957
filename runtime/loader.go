package runtime

import (
	"bufio"
	"bytes"
	"io/fs"
	"mcserve/errors"
	"strings"
)

// CensoredData carries the result of the loading process including metadata for logging.
type CensoredData struct {
	Words []string
	Lines int
}

// CensoredLoader reads blacklisted words, one per line, from a filesystem.
type CensoredLoader struct {
	fs fs.FS
}

func NewCensoredLoader(f fs.FS) *CensoredLoader {
	return &CensoredLoader{fs: f}
}

// Load parses name into a unique list of words. Blank lines and lines
// starting with '#' are skipped.
func (l *CensoredLoader) Load(name string) (*CensoredData, error) {
	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return nil, err
	}

	uniqueWords := make(map[string]struct{})
	lines := 0

	// Use a scanner to handle different line endings (\n vs \r\n) correctly
	// ⚠️Don't use strings.Split
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		uniqueWords[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}

	return &CensoredData{Words: words, Lines: lines}, nil
}
