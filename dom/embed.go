package dom

import (
	"errors"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"inlinebar/toolbar"
)

const (
	toolbarClass       = "medium-editor-toolbar"
	toolbarActiveClass = "medium-editor-toolbar-active"
	buttonActiveClass  = "medium-editor-button-active"
)

func display(shown bool) string {
	if shown {
		return "block"
	}
	return "none"
}

// EmbedToolbar materializes toolbar state into document body, replacing
// toolbar embedded earlier under the same id. Parts carry ids which match
// toolbar event targets.
func (d *Document) EmbedToolbar(c *toolbar.Controller) error {
	tb := c.Toolbar()
	if tb == nil {
		return errors.New("toolbar is not initialized")
	}
	body := d.Body()
	if body == nil {
		return errors.New("document has no body")
	}

	id := c.Target(toolbar.PartToolbar)
	for _, e := range body.ChildElements() {
		if e.SelectAttrValue("id", "") == id {
			body.RemoveChild(e)
		}
	}

	class := toolbarClass
	if tb.Visible {
		class += " " + toolbarActiveClass
	}
	root := body.CreateElement("div")
	root.CreateAttr("id", id)
	root.CreateAttr("class", class)
	err := d.SetStyle(Node{root}, map[string]string{
		"position": "absolute",
		"display":  display(tb.Visible),
		"left":     strconv.Itoa(tb.X) + "px",
		"top":      strconv.Itoa(tb.Y) + "px",
	})

	actions := root.CreateElement("ul")
	actions.CreateAttr("id", c.Target(toolbar.PartActions))
	actions.CreateAttr("class", "medium-editor-toolbar-actions")
	err = multierr.Append(err, d.SetStyle(Node{actions}, map[string]string{
		"display": display(tb.Mode == toolbar.ModeActions),
	}))
	for _, b := range tb.Buttons {
		li := actions.CreateElement("li")
		btn := li.CreateElement("button")
		btn.CreateAttr("id", c.ButtonTarget(b.ActionID))
		classes := []string{"medium-editor-action", "medium-editor-action-" + b.ActionID}
		if b.Active {
			classes = append(classes, buttonActiveClass)
		}
		btn.CreateAttr("class", strings.Join(classes, " "))
		btn.CreateAttr("data-action", b.ActionID)
		btn.CreateAttr("data-element", b.Tag)
		btn.SetText(b.Label)
		if b.Hidden {
			err = multierr.Append(err, d.SetStyle(Node{btn}, map[string]string{"display": "none"}))
		}
	}

	form := root.CreateElement("div")
	form.CreateAttr("id", c.Target(toolbar.PartForm))
	form.CreateAttr("class", "medium-editor-toolbar-form-anchor")
	err = multierr.Append(err, d.SetStyle(Node{form}, map[string]string{
		"display": display(tb.Mode == toolbar.ModeAnchorForm),
	}))
	input := form.CreateElement("input")
	input.CreateAttr("id", c.Target(toolbar.PartInput))
	input.CreateAttr("type", "text")
	input.CreateAttr("placeholder", tb.Input.Placeholder)
	input.CreateAttr("value", tb.Input.Value)
	cancel := form.CreateElement("a")
	cancel.CreateAttr("id", c.Target(toolbar.PartCancel))
	cancel.CreateAttr("href", "#")
	cancel.SetText("×")

	return err
}
