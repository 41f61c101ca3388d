// Package crisis flags messages that need a safety response instead of
// retrieval. Matching is case-insensitive substring search over a fixed
// phrase list, so a message is never embedded or ranked once it trips a
// phrase.
package crisis

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultPhrases is the built-in rule set. Phrases are lowercase;
// matching lowers the message once.
var defaultPhrases = []string{
	"suicide",
	"kill myself",
	"end my life",
	"want to die",
	"self harm",
	"self-harm",
	"hurt myself",
	"no reason to live",
	"better off dead",
}

// Detector matches crisis phrases in user messages.
type Detector struct {
	phrases []string
}

// Default returns a detector with the built-in phrase list.
func Default() *Detector {
	return New(defaultPhrases)
}

// New returns a detector for the given phrases. Phrases are lowercased
// and trimmed; empty entries are dropped.
func New(phrases []string) *Detector {
	cleaned := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return &Detector{phrases: cleaned}
}

// ruleFile is the YAML shape Load accepts:
//
//	keywords:
//	  - kill myself
//	  - suicide
type ruleFile struct {
	Keywords []string `yaml:"keywords"`
}

// Load reads a YAML rule file and returns a detector over its keywords.
func Load(path string) (*Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("crisis: read rules %q: %w", path, err)
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("crisis: parse rules %q: %w", path, err)
	}
	d := New(rf.Keywords)
	if len(d.phrases) == 0 {
		return nil, fmt.Errorf("crisis: rules %q contain no keywords", path)
	}
	return d, nil
}

// Detect reports whether the message contains any crisis phrase.
func (d *Detector) Detect(message string) bool {
	m := strings.ToLower(message)
	for _, p := range d.phrases {
		if strings.Contains(m, p) {
			return true
		}
	}
	return false
}

// Matches returns the phrases the message contains, in rule order.
// An empty result means the message is clear.
func (d *Detector) Matches(message string) []string {
	m := strings.ToLower(message)
	var hits []string
	for _, p := range d.phrases {
		if strings.Contains(m, p) {
			hits = append(hits, p)
		}
	}
	return hits
}
