// internal/browser/forms/controls.go
package forms

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
	"golang.org/x/net/html/atom"
)

// Control is the standard behavior of the form-associable elements. It
// holds the state that is not reflected in attributes: the dirty value, the
// dirty checkedness, the selected options and the custom validity message.
type Control struct {
	node *dom.Node
	form *Form

	value string
	dirty bool

	checked      bool
	checkedDirty bool

	selection      []*dom.Node
	selectionDirty bool

	customValidity string

	// outputDefault holds an output element's text from before its first
	// value change.
	outputDefault *string
}

// NewControl creates the behavior for the form-associable element n.
func NewControl(n *dom.Node) *Control {
	return &Control{node: n}
}

// ControlFromNode returns the control behavior attached to n, or nil.
func ControlFromNode(n *dom.Node) *Control {
	if n == nil {
		return nil
	}
	c, _ := n.Behavior().(*Control)
	return c
}

// Node returns the control's element.
func (c *Control) Node() *dom.Node { return c.node }

// Form returns the owning form, or nil.
func (c *Control) Form() *Form { return c.form }

// FormOwnerChanged records the new owning form.
func (c *Control) FormOwnerChanged(form *Form) { c.form = form }

// Type returns the lower-case control type: the input type with its
// fallback to "text", the button type, "select-one", "select-multiple", or
// the element name for everything else.
func (c *Control) Type() string {
	n := c.node
	switch n.DataAtom() {
	case atom.Input:
		t := strings.ToLower(strings.TrimSpace(n.AttributeOr("type", "")))
		if _, ok := inputTypes[t]; ok {
			return t
		}
		return "text"
	case atom.Button:
		switch t := strings.ToLower(n.AttributeOr("type", "")); t {
		case "reset", "button":
			return t
		}
		return "submit"
	case atom.Select:
		if n.HasAttribute("multiple") {
			return "select-multiple"
		}
		return "select-one"
	}
	return n.LocalName()
}

var inputTypes = map[string]struct{}{
	"hidden": {}, "text": {}, "search": {}, "tel": {}, "url": {}, "email": {},
	"password": {}, "date": {}, "month": {}, "week": {}, "time": {},
	"datetime-local": {}, "number": {}, "range": {}, "color": {},
	"checkbox": {}, "radio": {}, "file": {}, "submit": {}, "image": {},
	"reset": {}, "button": {},
}

// textLike types accept pattern, minlength and maxlength.
var textLike = map[string]bool{
	"text": true, "search": true, "tel": true, "url": true, "email": true, "password": true,
}

// -- Value --

// Value returns the current value.
func (c *Control) Value() string {
	n := c.node
	switch n.DataAtom() {
	case atom.Input:
		switch c.Type() {
		case "hidden", "submit", "reset", "button", "image":
			return n.AttributeOr("value", "")
		case "checkbox", "radio":
			return n.AttributeOr("value", "on")
		case "file":
			return ""
		}
		if c.dirty {
			return c.value
		}
		return sanitizeLine(n.AttributeOr("value", ""))
	case atom.Textarea:
		if c.dirty {
			return c.value
		}
		return n.TextContent()
	case atom.Select:
		if sel := c.SelectedOptions(); len(sel) > 0 {
			return optionValue(sel[0])
		}
		return ""
	case atom.Button:
		return n.AttributeOr("value", "")
	case atom.Output:
		return n.TextContent()
	}
	return ""
}

// SetValue changes the value as a script assignment would. Inputs whose
// value mirrors the value attribute write the attribute; selects select the
// first option with a matching value.
func (c *Control) SetValue(v string) {
	n := c.node
	switch n.DataAtom() {
	case atom.Input:
		switch c.Type() {
		case "hidden", "submit", "reset", "button", "image", "checkbox", "radio":
			n.SetAttribute("value", v)
			return
		case "file":
			return
		}
		c.value, c.dirty = sanitizeLine(v), true
	case atom.Textarea:
		c.value, c.dirty = v, true
	case atom.Select:
		c.selection, c.selectionDirty = nil, true
		for _, opt := range c.Options() {
			if optionValue(opt) == v {
				c.selection = []*dom.Node{opt}
				break
			}
		}
	case atom.Button:
		n.SetAttribute("value", v)
	case atom.Output:
		if c.outputDefault == nil {
			def := n.TextContent()
			c.outputDefault = &def
		}
		n.SetTextContent(v)
	}
}

// Dirty reports whether the value was changed since the last reset.
func (c *Control) Dirty() bool { return c.dirty }

func sanitizeLine(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}

// -- Checkedness --

// Checked reports the checkedness of a checkbox or radio button.
func (c *Control) Checked() bool {
	if c.checkedDirty {
		return c.checked
	}
	return c.node.HasAttribute("checked")
}

// SetChecked changes the checkedness. Checking a radio button unchecks the
// other members of its group.
func (c *Control) SetChecked(checked bool) {
	c.checked, c.checkedDirty = checked, true
	if !checked || c.Type() != "radio" {
		return
	}
	for _, other := range c.radioGroup() {
		if other != c {
			other.checked, other.checkedDirty = false, true
		}
	}
}

// radioGroup returns the radio buttons sharing c's name and form owner,
// including c.
func (c *Control) radioGroup() []*Control {
	name := c.node.AttributeOr("name", "")
	if name == "" {
		return []*Control{c}
	}
	scope := c.node
	if c.form != nil {
		scope = c.form.node
	} else {
		for scope.Parent() != nil {
			scope = scope.Parent()
		}
	}

	var group []*Control
	for n := range dom.Descendants(scope) {
		other := ControlFromNode(n)
		if other == nil || other.form != c.form || other.Type() != "radio" {
			continue
		}
		if n.AttributeOr("name", "") == name {
			group = append(group, other)
		}
	}
	return group
}

// -- Select options --

// Options returns the option elements of a select in tree order.
func (c *Control) Options() []*dom.Node {
	if !c.node.Is(atom.Select) {
		return nil
	}
	var out []*dom.Node
	for n := range dom.Descendants(c.node) {
		if n.Is(atom.Option) {
			out = append(out, n)
		}
	}
	return out
}

// SelectedOptions returns the selected options of a select in tree order.
func (c *Control) SelectedOptions() []*dom.Node {
	if c.selectionDirty {
		var live []*dom.Node
		for _, opt := range c.selection {
			if c.node.Contains(opt) {
				live = append(live, opt)
			}
		}
		return live
	}

	opts := c.Options()
	if c.Type() == "select-multiple" {
		var out []*dom.Node
		for _, opt := range opts {
			if opt.HasAttribute("selected") {
				out = append(out, opt)
			}
		}
		return out
	}

	var last *dom.Node
	for _, opt := range opts {
		if opt.HasAttribute("selected") {
			last = opt
		}
	}
	if last != nil {
		return []*dom.Node{last}
	}
	if c.displaySize() == 1 {
		for _, opt := range opts {
			if !opt.HasAttribute("disabled") {
				return []*dom.Node{opt}
			}
		}
	}
	return nil
}

func (c *Control) displaySize() int {
	if size, err := strconv.Atoi(strings.TrimSpace(c.node.AttributeOr("size", ""))); err == nil && size > 0 {
		return size
	}
	if c.node.HasAttribute("multiple") {
		return 4
	}
	return 1
}

func optionValue(opt *dom.Node) string {
	if v, ok := opt.GetAttribute("value"); ok {
		return v
	}
	return strings.Join(strings.Fields(opt.TextContent()), " ")
}

// -- Disabled state --

// Disabled reports whether the control is disabled by its own attribute or
// by an ancestor fieldset. Controls inside the first legend of a disabled
// fieldset stay enabled.
func (c *Control) Disabled() bool {
	n := c.node
	if n.HasAttribute("disabled") {
		switch n.DataAtom() {
		case atom.Button, atom.Input, atom.Select, atom.Textarea, atom.Fieldset, atom.Keygen:
			return true
		}
	}
	for child, cur := n, n.Parent(); cur != nil; child, cur = cur, cur.Parent() {
		if !cur.Is(atom.Fieldset) || !cur.HasAttribute("disabled") {
			continue
		}
		if legend := firstLegend(cur); legend != nil && legend == child {
			continue
		}
		return true
	}
	return false
}

func firstLegend(fieldset *dom.Node) *dom.Node {
	for child := fieldset.FirstChild(); child != nil; child = child.NextSibling() {
		if child.Is(atom.Legend) {
			return child
		}
	}
	return nil
}

// -- Constraint validation --

// WillValidate reports whether the control is a candidate for constraint validation.
func (c *Control) WillValidate() bool {
	n := c.node
	switch n.DataAtom() {
	case atom.Fieldset, atom.Output, atom.Object, atom.Keygen:
		return false
	}
	if c.Disabled() {
		return false
	}
	if n.ClosestAncestor(func(a *dom.Node) bool { return a.Is(atom.Datalist) }) != nil {
		return false
	}
	switch c.Type() {
	case "hidden", "reset", "button":
		return false
	}
	if (n.Is(atom.Input) || n.Is(atom.Textarea)) && n.HasAttribute("readonly") {
		return false
	}
	return true
}

// ValidityState reports which constraints a control violates.
type ValidityState struct {
	ValueMissing    bool
	PatternMismatch bool
	TooLong         bool
	TooShort        bool
	CustomError     bool
}

// Valid reports whether no constraint is violated.
func (v ValidityState) Valid() bool {
	return !v.ValueMissing && !v.PatternMismatch && !v.TooLong && !v.TooShort && !v.CustomError
}

// Validity evaluates the control's constraints against its current state.
func (c *Control) Validity() ValidityState {
	var v ValidityState
	v.CustomError = c.customValidity != ""
	v.ValueMissing = c.valueMissing()

	value := c.Value()
	if c.node.Is(atom.Input) && textLike[c.Type()] && value != "" {
		v.PatternMismatch = patternMismatch(c.node.AttributeOr("pattern", ""), value, c.node.HasAttribute("pattern"))
	}
	if c.dirty && value != "" && (c.node.Is(atom.Textarea) || textLike[c.Type()]) {
		length := utf8.RuneCountInString(value)
		if maxLen, ok := lengthAttr(c.node, "maxlength"); ok && length > maxLen {
			v.TooLong = true
		}
		if minLen, ok := lengthAttr(c.node, "minlength"); ok && length < minLen {
			v.TooShort = true
		}
	}
	return v
}

func (c *Control) valueMissing() bool {
	n := c.node
	if !n.HasAttribute("required") {
		return false
	}
	switch n.DataAtom() {
	case atom.Input:
		switch c.Type() {
		case "checkbox":
			return !c.Checked()
		case "radio":
			for _, member := range c.radioGroup() {
				if member.Checked() {
					return false
				}
			}
			return true
		case "hidden", "submit", "reset", "button", "image", "range", "color":
			return false
		}
		return c.Value() == ""
	case atom.Textarea:
		return c.Value() == ""
	case atom.Select:
		for _, opt := range c.SelectedOptions() {
			if optionValue(opt) != "" {
				return false
			}
		}
		return true
	}
	return false
}

func patternMismatch(pattern, value string, present bool) bool {
	if !present {
		return false
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		// An invalid pattern imposes no constraint.
		return false
	}
	return !re.MatchString(value)
}

func lengthAttr(n *dom.Node, name string) (int, bool) {
	raw, ok := n.GetAttribute(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// CheckValidity reports whether the control satisfies its constraints.
// Controls that are not candidates for validation are always valid. No
// event is fired; the owning form fires invalid events during its own checks.
func (c *Control) CheckValidity() bool {
	if !c.WillValidate() {
		return true
	}
	return c.Validity().Valid()
}

// CheckValidityAndNotify is the element.checkValidity() entry point: it
// fires a cancelable invalid event at the control when it is invalid.
func (c *Control) CheckValidityAndNotify() bool {
	if c.CheckValidity() {
		return true
	}
	fireInvalid(c.node)
	return false
}

// SetCustomValidity sets the custom error message. An empty message clears it.
func (c *Control) SetCustomValidity(msg string) { c.customValidity = msg }

// ValidationMessage describes the first violated constraint, or "" when
// the control is valid or not validated.
func (c *Control) ValidationMessage() string {
	if !c.WillValidate() {
		return ""
	}
	v := c.Validity()
	switch {
	case v.CustomError:
		return c.customValidity
	case v.ValueMissing:
		return "Please fill out this field."
	case v.PatternMismatch:
		return "Please match the requested format."
	case v.TooLong:
		return "Please shorten this text."
	case v.TooShort:
		return "Please lengthen this text."
	}
	return ""
}

// -- Focus and reset --

// Focus moves document focus to the control. Disabled controls and hidden
// inputs cannot take focus.
func (c *Control) Focus() bool {
	doc := c.node.OwnerDocument()
	if doc == nil || c.Disabled() || c.Type() == "hidden" {
		return false
	}
	return doc.Focus(c.node)
}

// FormReset restores the default value, checkedness and selection and
// clears the dirty flags.
func (c *Control) FormReset() {
	c.value, c.dirty = "", false
	c.checked, c.checkedDirty = false, false
	c.selection, c.selectionDirty = nil, false
	if c.outputDefault != nil {
		c.node.SetTextContent(*c.outputDefault)
		c.outputDefault = nil
	}
}

// -- Form data set --

// AppendEntries contributes the control's entries to list.
func (c *Control) AppendEntries(list *EntryList, submitter *dom.Node) {
	n := c.node
	if c.Disabled() {
		return
	}
	if n.ClosestAncestor(func(a *dom.Node) bool { return a.Is(atom.Datalist) }) != nil {
		return
	}
	name := n.AttributeOr("name", "")
	if name == "" {
		return
	}

	switch n.DataAtom() {
	case atom.Button:
		if n == submitter && c.Type() == "submit" {
			list.Append(name, c.Value())
		}
	case atom.Input:
		switch t := c.Type(); t {
		case "submit":
			if n == submitter {
				list.Append(name, c.Value())
			}
		case "reset", "button", "image":
		case "checkbox", "radio":
			if c.Checked() {
				list.Append(name, c.Value())
			}
		case "file":
			list.AppendFile(name, "")
		case "hidden":
			if strings.EqualFold(name, "_charset_") {
				list.Append(name, "UTF-8")
				return
			}
			list.Append(name, c.Value())
		default:
			list.Append(name, c.Value())
		}
	case atom.Select:
		for _, opt := range c.SelectedOptions() {
			if !opt.HasAttribute("disabled") {
				list.Append(name, optionValue(opt))
			}
		}
	case atom.Textarea:
		list.Append(name, c.Value())
	}
}
