package encoding

import (
	"encoding/json"
	"testing"
)

func TestBase64Data_MarshalJSON(t *testing.T) {
	data := Base64Data([]byte("hello world"))

	b, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("MarshalJSON error: %v", err)
	}

	expected := `"aGVsbG8gd29ybGQ="`
	if string(b) != expected {
		t.Errorf("MarshalJSON = %s; want %s", b, expected)
	}
}

func TestBase64Data_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{
			name:  "valid base64",
			input: `"aGVsbG8gd29ybGQ="`,
			want:  []byte("hello world"),
		},
		{
			name:  "empty base64",
			input: `""`,
			want:  []byte{},
		},
		{
			name:  "null",
			input: `null`,
			want:  nil,
		},
		{
			name:    "invalid - number",
			input:   `123`,
			wantErr: true,
		},
		{
			name:    "invalid - bad alphabet",
			input:   `"!!!"`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var data Base64Data
			err := json.Unmarshal([]byte(tc.input), &data)

			if tc.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("UnmarshalJSON error: %v", err)
			}

			if string(data) != string(tc.want) {
				t.Errorf("UnmarshalJSON = %v; want %v", data, tc.want)
			}
		})
	}
}

func TestBase64Data_RoundTrip(t *testing.T) {
	// Arbitrary binary, not valid UTF-8: the same shape as a packed
	// float32 vector.
	original := Base64Data([]byte{0x00, 0x00, 0x80, 0x3f, 0xcd, 0xcc, 0xcc, 0x3d})

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var restored Base64Data
	if err := json.Unmarshal(b, &restored); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if string(original) != string(restored) {
		t.Errorf("RoundTrip: original=%v, restored=%v", original, restored)
	}
}

func TestBase64Data_String(t *testing.T) {
	data := Base64Data([]byte("hello"))
	expected := "aGVsbG8="

	if data.String() != expected {
		t.Errorf("String() = %s; want %s", data.String(), expected)
	}
}

func TestBase64DataInStruct(t *testing.T) {
	type record struct {
		ID     string     `json:"id"`
		Vector Base64Data `json:"vector"`
	}

	msg := record{
		ID:     "doc_0",
		Vector: Base64Data([]byte{0x9a, 0x99, 0x99, 0x3e}),
	}

	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var restored record
	if err := json.Unmarshal(b, &restored); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if restored.ID != msg.ID {
		t.Errorf("ID = %s; want %s", restored.ID, msg.ID)
	}
	if string(restored.Vector) != string(msg.Vector) {
		t.Errorf("Vector = %v; want %v", restored.Vector, msg.Vector)
	}
}
