package client

import (
	"fmt"

	"github.com/michaelbrown/switchboard/internal/settings"
)

// EditorState is where the raw config editor is in its lifecycle.
type EditorState int

const (
	StateClosed EditorState = iota
	StateEditing
	StateSubmitting
)

func (s EditorState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Editor is the raw JSON editing flow for the configuration blob. It opens
// with the current blob pretty-printed, gates submission on a successful
// parse, and hands the parsed blob to a submit callback. Parse errors and
// submit failures keep the editor open with an inline error; edits clear
// the error.
type Editor struct {
	state  EditorState
	text   string
	errMsg string
	submit func(settings.Blob) error
}

// NewEditor creates a closed editor. submit receives the parsed blob on a
// successful save.
func NewEditor(submit func(settings.Blob) error) *Editor {
	return &Editor{submit: submit}
}

// Open switches to editing with current pretty-printed into the text area.
func (e *Editor) Open(current settings.Blob) error {
	if e.state != StateClosed {
		return fmt.Errorf("editor already open")
	}

	text, err := current.Pretty()
	if err != nil {
		return err
	}
	e.text = text
	e.errMsg = ""
	e.state = StateEditing
	return nil
}

// SetText replaces the editor contents. Any prior error is cleared, the
// way a textarea change dismisses an inline validation message.
func (e *Editor) SetText(text string) {
	if e.state != StateEditing {
		return
	}
	e.text = text
	e.errMsg = ""
}

// Text returns the current editor contents.
func (e *Editor) Text() string {
	return e.text
}

// Err returns the current inline error, if any.
func (e *Editor) Err() string {
	return e.errMsg
}

// State returns the editor's lifecycle state.
func (e *Editor) State() EditorState {
	return e.state
}

// Save parses the text and, only if parsing succeeds, invokes the submit
// callback with the parsed blob. Malformed JSON never reaches the
// callback. On success the editor closes; on parse or submit failure it
// stays open with the error set.
func (e *Editor) Save() error {
	if e.state != StateEditing {
		return fmt.Errorf("no edit in progress (state: %s)", e.state)
	}

	blob, err := settings.Parse(e.text)
	if err != nil {
		e.errMsg = err.Error()
		return err
	}

	e.state = StateSubmitting
	if err := e.submit(blob); err != nil {
		e.errMsg = err.Error()
		e.state = StateEditing
		return err
	}

	e.errMsg = ""
	e.state = StateClosed
	return nil
}

// Cancel discards the edit and closes the editor.
func (e *Editor) Cancel() {
	if e.state == StateSubmitting {
		return
	}
	e.text = ""
	e.errMsg = ""
	e.state = StateClosed
}
