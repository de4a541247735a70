package main

import (
	"golang.design/x/clipboard"

	"github.com/branpk/wafel-sub001/internal/monitor"
)

// systemClipboard wraps golang.design/x/clipboard behind
// monitor.Clipboard, using clipboard.Init/clipboard.Write for a one-way
// "yank" write to the system clipboard.
type systemClipboard struct{}

func newSystemClipboard() (monitor.Clipboard, error) {
	if err := clipboard.Init(); err != nil {
		return nil, err
	}
	return systemClipboard{}, nil
}

func (systemClipboard) Write(text string) error {
	// The returned channel closes when another writer takes ownership of
	// the clipboard, not when this write completes — discard it rather
	// than block "yank" on some future, unrelated clipboard change.
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
