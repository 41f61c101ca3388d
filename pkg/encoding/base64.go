// Package encoding provides JSON-serializable byte slice types for
// binary payloads such as embedding vectors in corpus snapshots.
package encoding

import (
	"encoding/base64"
	"fmt"
)

// Base64Data is a byte slice that serializes to/from standard base64 in
// JSON. A JSON null leaves the slice unchanged.
type Base64Data []byte

// MarshalJSON implements json.Marshaler.
func (b Base64Data) MarshalJSON() ([]byte, error) {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(b))+2)
	out[0] = '"'
	base64.StdEncoding.Encode(out[1:], b)
	out[len(out)-1] = '"'
	return out, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Base64Data) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("encoding: base64 value %s is not a JSON string", s)
	}
	decoded, err := base64.StdEncoding.DecodeString(s[1 : len(s)-1])
	if err != nil {
		return fmt.Errorf("encoding: decode base64: %w", err)
	}
	*b = decoded
	return nil
}

// String returns the base64-encoded string representation.
func (b Base64Data) String() string {
	return base64.StdEncoding.EncodeToString(b)
}
