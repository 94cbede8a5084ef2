package toolbar

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		id   string
		want Action
	}{
		{"bold", InlineToggle{Command: CommandBold}},
		{"strikethrough", InlineToggle{Command: CommandStrikethrough}},
		{"unlink", InlineToggle{Command: CommandUnlink}},
		{"anchor", LinkToggle{}},
		{"append-h3", BlockConvert{Kind: "h3"}},
		{"append-BLOCKQUOTE", BlockConvert{Kind: "blockquote"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := ParseAction(tt.id)
			if err != nil {
				t.Fatalf("ParseAction() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseAction() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseAction_Errors(t *testing.T) {
	for _, id := range []string{"", "blink", "createLink", "append-", "append-h3 x", "Bold"} {
		if _, err := ParseAction(id); !errors.Is(err, ErrUnknownAction) {
			t.Errorf("ParseAction(%q) error = %v, want ErrUnknownAction", id, err)
		}
	}
}

func TestAction_String(t *testing.T) {
	for _, id := range []string{"italic", "anchor", "append-h4"} {
		a, err := ParseAction(id)
		if err != nil {
			t.Fatalf("ParseAction(%q) error = %v", id, err)
		}
		if a.String() != id {
			t.Errorf("String() = %q, want %q", a.String(), id)
		}
	}
}

func TestResolver(t *testing.T) {
	h := newFakeHost(nil)
	r := NewResolver(h)

	p := el("p", txt("plain "), el("b", el("i", txt("rich"))), el("em", txt("x")))
	el("body", p)

	tests := []struct {
		name   string
		anchor Node
		want   []string
	}{
		{"text in block", p.children[0], []string{"p"}},
		{"nested inline", p.children[1].children[0].children[0], []string{"i", "b", "p"}},
		{"element anchor", p.children[1], []string{"b", "p"}},
		{"block anchor", p, []string{"p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.anchor)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := r.Resolve(el("b", txt("x")).children[0]); !errors.Is(err, ErrNoBlockAncestor) {
		t.Errorf("Resolve() error = %v, want ErrNoBlockAncestor", err)
	}
}

func TestToolbar_SetActive(t *testing.T) {
	tb, err := newToolbar(DefaultOptions())
	if err != nil {
		t.Fatalf("newToolbar() error = %v", err)
	}
	tb.Button("underline").Active = true

	tb.setActive([]string{"EM", "B", "blockquote"})

	var active []string
	for _, b := range tb.Buttons {
		if b.Active {
			active = append(active, b.ActionID)
		}
	}
	if diff := cmp.Diff([]string{"bold", "append-blockquote"}, active); diff != "" {
		t.Errorf("active buttons mismatch (-want +got):\n%s", diff)
	}
	if tb.Button("missing") != nil {
		t.Error("Button() found nonexistent button")
	}
}
