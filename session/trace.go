package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v3"

	"inlinebar/toolbar"
)

// Entry is toolbar snapshot taken during session.
type Entry struct {
	Step      int           `yaml:"step"`
	Label     string        `yaml:"label,omitempty"`
	At        time.Duration `yaml:"at"`
	Selection string        `yaml:"selection"`
	Toolbar   toolbar.State `yaml:"toolbar"`
}

// Trace is what session produced.
type Trace struct {
	ID      string  `yaml:"session"`
	Script  string  `yaml:"script,omitempty"`
	Source  string  `yaml:"source,omitempty"`
	Entries []Entry `yaml:"snapshots"`
}

func newTrace(script string) *Trace {
	return &Trace{ID: uuid.NewString(), Script: script}
}

// Last returns latest snapshot, zero entry when there is none.
func (t *Trace) Last() Entry {
	if len(t.Entries) == 0 {
		return Entry{}
	}
	return t.Entries[len(t.Entries)-1]
}

// Find returns first snapshot with label.
func (t *Trace) Find(label string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Label == label {
			return e, true
		}
	}
	return Entry{}, false
}

func (t *Trace) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trace to yaml: %w", err)
	}
	return data, nil
}
