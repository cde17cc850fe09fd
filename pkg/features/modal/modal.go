// Package modal provides a dialog visibility flag owned by its parent.
//
// A Modal carries no content of its own. The parent opens it when there is
// something to show and reads its own state to decide what that is:
//
//	result := modal.New()
//	result.Subscribe(func() {
//	    if result.IsOpen() {
//	        render(challenge.Result())
//	    }
//	})
//	result.Open()
package modal

import "github.com/vango-dev/opinions/pkg/reactive"

// Modal is an open/closed flag with change notification.
type Modal struct {
	open *reactive.Signal[bool]
}

// New returns a closed modal.
func New() *Modal {
	return &Modal{open: reactive.NewSignal(false)}
}

// Open shows the modal. Opening an open modal does nothing.
func (m *Modal) Open() { m.open.Set(true) }

// Close hides the modal.
func (m *Modal) Close() { m.open.Set(false) }

// Toggle flips the flag.
func (m *Modal) Toggle() {
	m.open.Update(func(open bool) bool { return !open })
}

// IsOpen reports whether the modal is showing.
func (m *Modal) IsOpen() bool { return m.open.Get() }

// Subscribe registers fn to run whenever the modal opens or closes.
func (m *Modal) Subscribe(fn func()) (unsubscribe func()) {
	return m.open.Subscribe(fn)
}
