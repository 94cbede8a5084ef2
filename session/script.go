// Package session replays scripted user interaction against a document with
// an inline toolbar attached and records what toolbar looked like.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Targets of click step other than toolbar buttons.
const (
	ClickPage   = "page"
	ClickForm   = "form"
	ClickInput  = "input"
	ClickCancel = "cancel"
)

// Sources of selection release.
const (
	ReleasePointer = "pointer"
	ReleaseKey     = "key"
)

// SelectStep changes document selection. Text is searched inside Within (or
// whole body), Element selects contents of the first element matching
// selector. When neither is given selection is cleared.
type SelectStep struct {
	Text       string `yaml:"text,omitempty"`
	Occurrence int    `yaml:"occurrence,omitempty"`
	Within     string `yaml:"within,omitempty"`
	Element    string `yaml:"element,omitempty"`
}

// Step is a single user interaction, exactly one field must be set.
type Step struct {
	Select   *SelectStep   `yaml:"select,omitempty"`
	Release  string        `yaml:"release,omitempty"`
	Click    string        `yaml:"click,omitempty"`
	Type     *string       `yaml:"type,omitempty"`
	Key      string        `yaml:"key,omitempty"`
	Wait     time.Duration `yaml:"wait,omitempty"`
	Snapshot *string       `yaml:"snapshot,omitempty"`
}

// Kind returns name of step action, empty when step is malformed.
func (s Step) Kind() string {
	var kinds []string
	if s.Select != nil {
		kinds = append(kinds, "select")
	}
	if s.Release != "" {
		kinds = append(kinds, "release")
	}
	if s.Click != "" {
		kinds = append(kinds, "click")
	}
	if s.Type != nil {
		kinds = append(kinds, "type")
	}
	if s.Key != "" {
		kinds = append(kinds, "key")
	}
	if s.Wait != 0 {
		kinds = append(kinds, "wait")
	}
	if s.Snapshot != nil {
		kinds = append(kinds, "snapshot")
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Script is a recorded editing session.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// LoadScript reads and validates session script.
func LoadScript(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read script: %w", err)
	}

	// unknown fields are most likely typos in step names
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("script is empty")
		}
		return nil, fmt.Errorf("failed to decode script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return errors.New("script has no steps")
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	switch s.Kind() {
	case "":
		return errors.New("step must have exactly one action")
	case "select":
		if s.Select.Text != "" && s.Select.Element != "" {
			return errors.New("select step could have either text or element")
		}
		if s.Select.Occurrence < 0 {
			return fmt.Errorf("bad occurrence %d", s.Select.Occurrence)
		}
	case "release":
		if s.Release != ReleasePointer && s.Release != ReleaseKey {
			return fmt.Errorf("unknown release source '%s'", s.Release)
		}
	case "click":
		if strings.TrimSpace(s.Click) != s.Click {
			return fmt.Errorf("bad click target '%s'", s.Click)
		}
	case "wait":
		if s.Wait < 0 {
			return fmt.Errorf("negative wait %s", s.Wait)
		}
	}
	return nil
}
