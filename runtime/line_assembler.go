package runtime

import "bytes"

// LineAssembler turns a byte stream into complete lines.
// The trailing unterminated part is kept until its terminator arrives.
// Not safe for concurrent writers.
type LineAssembler struct {
	buf    []byte
	handle func(line string)
}

func NewLineAssembler(handle func(line string)) *LineAssembler {
	return &LineAssembler{handle: handle}
}

// Write never fails, it only buffers.
func (a *LineAssembler) Write(p []byte) (int, error) {
	a.buf = append(a.buf, p...)
	for {
		i := bytes.IndexByte(a.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(a.buf[:i], []byte{'\r'})
		a.handle(string(line))
		a.buf = a.buf[i+1:]
	}
	if len(a.buf) == 0 {
		a.buf = nil
	}
	return len(p), nil
}

// Remainder returns what has been received since the last terminator.
func (a *LineAssembler) Remainder() string {
	return string(a.buf)
}
