package frame

import "strings"

// Encode serializes a server frame as "command LF (name:value LF)* LF text".
// Header order is not significant on the wire, so map iteration order is
// fine. The writer always uses "\n" and never emits a trailing NUL — the
// transport (one WebSocket message per frame) delineates messages.
func Encode(f ServerFrame) []byte {
	var b strings.Builder
	b.WriteString(f.Command)
	b.WriteByte('\n')
	for name, value := range f.Headers {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(value)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(f.Text)
	return []byte(b.String())
}
