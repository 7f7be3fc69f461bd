// Package gitipld converts between native git objects and the canonical
// payload form submitted to the DAG store. The payload is the exact byte
// framing git hashes itself ("kind len\0raw"), so the store's content
// address is derived from the same bytes as the native identifier.
package gitipld

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Encode frames a native object as a canonical payload: the ASCII kind
// token, a space, the decimal content length, a NUL byte, then the raw
// content verbatim.
func Encode(kind ObjectKind, raw []byte) ([]byte, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	envelope := fmt.Sprintf("%s %d\x00", kind, len(raw))
	out := make([]byte, 0, len(envelope)+len(raw))
	out = append(out, envelope...)
	out = append(out, raw...)
	return out, nil
}

// Decode splits a canonical payload back into its kind and raw content.
// Payloads are always engine-produced, but corrupt local data must still
// surface as an error rather than a panic.
func Decode(payload []byte) (ObjectKind, []byte, error) {
	nul := bytes.IndexByte(payload, 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("decode: invalid payload (no NUL)")
	}
	header := string(payload[:nul])
	raw := payload[nul+1:]

	token, lenStr, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("decode: invalid header %q", header)
	}
	kind, err := ParseKind(token)
	if err != nil {
		return "", nil, fmt.Errorf("decode: %w", err)
	}
	length, err := strconv.Atoi(lenStr)
	if err != nil {
		return "", nil, fmt.Errorf("decode: invalid length %q: %w", lenStr, err)
	}
	if len(raw) != length {
		return "", nil, fmt.Errorf("decode: length mismatch (header=%d, actual=%d)", length, len(raw))
	}
	return kind, raw, nil
}
