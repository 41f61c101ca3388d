package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"gopkg.in/yaml.v3"
)

// LoadRequest reads an ingest or query request file into v. The format
// follows the file extension; unknown extensions are sniffed from the
// content.
func LoadRequest(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return ParseRequest(data, path, v)
}

// ParseRequest parses request data based on file extension or content.
func ParseRequest(data []byte, filename string, v any) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := unmarshalJSON(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		// A document opening with an object or array is JSON; routing
		// it to the JSON path keeps repair available for it.
		if d := bytes.TrimSpace(data); len(d) > 0 && (d[0] == '{' || d[0] == '[') {
			if err := unmarshalJSON(data, v); err != nil {
				return fmt.Errorf("failed to parse JSON: %w", err)
			}
			return nil
		}
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse file as YAML: %w", err)
		}
	}
	return nil
}

// LoadRequestFromStdin reads a request from stdin. File arguments named
// "-" route here.
func LoadRequestFromStdin(v any) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	return ParseRequest(data, "", v)
}

// unmarshalJSON unmarshals JSON data into v, attempting to repair
// malformed JSON. Hand-edited request files often carry trailing
// commas or unquoted keys; a syntax error triggers one repair pass
// before retrying.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
