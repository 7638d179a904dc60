// Package timeslot provides the half-open time window primitive shared by the
// reservation and carpool domains.
//
// A Window covers [Start, End): the start instant belongs to the window, the
// end instant does not. Two windows overlap iff they share at least one
// instant under that convention, which means a window beginning exactly when
// another ends is NOT a conflict. This back-to-back exemption is applied
// uniformly at every call site in the codebase.
package timeslot

import (
	"fmt"
	"time"
)

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// New builds a window from explicit bounds. Bounds are not validated here;
// call Validate where ordering matters.
func New(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

// FromDuration builds the window [start, start+minutes).
func FromDuration(start time.Time, minutes int) Window {
	return Window{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

// IsValid reports whether Start strictly precedes End.
func (w Window) IsValid() bool {
	return w.Start.Before(w.End)
}

// Overlaps reports whether w and other share at least one instant.
//
// Half-open semantics: w.End == other.Start (or the reverse) is a
// back-to-back pair, not an overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Contains reports whether w fully covers other, boundaries included.
func (w Window) Contains(other Window) bool {
	return !other.Start.Before(w.Start) && !other.End.After(w.End)
}

// Minutes returns the window length in whole minutes.
func (w Window) Minutes() int {
	return int(w.End.Sub(w.Start) / time.Minute)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// Overlaps is the function form of Window.Overlaps for call sites that carry
// bare instants.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return Window{Start: aStart, End: aEnd}.Overlaps(Window{Start: bStart, End: bEnd})
}
