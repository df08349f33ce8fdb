package dataprocessing

import "fmt"

// Warnings collects row-level problems in the order they were found.
// The zero value is ready to use.
type Warnings struct {
	items []string
}

// Addf records a formatted warning.
func (w *Warnings) Addf(format string, args ...any) {
	w.items = append(w.items, fmt.Sprintf(format, args...))
}

// Append adds already formatted warnings.
func (w *Warnings) Append(items ...string) {
	w.items = append(w.items, items...)
}

// Len returns the number of collected warnings.
func (w *Warnings) Len() int {
	return len(w.items)
}

// List returns a copy of the warnings. It never returns nil.
func (w *Warnings) List() []string {
	out := make([]string, len(w.items))
	copy(out, w.items)
	return out
}
