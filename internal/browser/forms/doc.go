/*
Package forms implements the form control container of the pure-Go DOM.

A Form is the behavior attached to every form element. It keeps the owning
form of each control current as the tree mutates, exposes the live ordered
collection of its listed controls, runs static and interactive constraint
validation, interprets the method, enctype and action attributes, and
coordinates the submit event, submission and reset.

Controls participate through optional capabilities: a behavior that
implements FormOwnerChanger, Validator, Resetter, Focuser or
EntryContributor takes part in the matching operation, and one that does not
is skipped.

Ownership is derived from tree containment only. The form content attribute,
which associates a control outside the form's subtree, is not modeled.
*/
package forms
