// internal/browser/forms/activation.go
package forms

import (
	"context"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
)

type checkState struct {
	control      *Control
	checked      bool
	checkedDirty bool
}

// Click fires a bubbling, cancelable click event at the control and runs its
// activation behavior when the event is not cancelled: submit buttons
// request submission of the owning form and reset buttons reset it.
// Checkboxes and radio buttons change checkedness before the event is
// dispatched and restore it if a listener cancels.
func (c *Control) Click(ctx context.Context) error {
	if c.Disabled() {
		return nil
	}

	var saved []checkState
	switch c.Type() {
	case "checkbox":
		saved = []checkState{{c, c.checked, c.checkedDirty}}
		c.SetChecked(!c.Checked())
	case "radio":
		for _, member := range c.radioGroup() {
			saved = append(saved, checkState{member, member.checked, member.checkedDirty})
		}
		c.SetChecked(true)
	}

	if !c.node.DispatchEvent(newEvent(c.node, "click", dom.EventInit{Bubbles: true, Cancelable: true})) {
		for _, s := range saved {
			s.control.checked, s.control.checkedDirty = s.checked, s.checkedDirty
		}
		return nil
	}

	if c.form == nil {
		return nil
	}
	switch c.Type() {
	case "submit":
		_, err := c.form.RequestSubmit(ctx, c.node)
		return err
	case "reset":
		c.form.DispatchResetEvent()
	}
	return nil
}
