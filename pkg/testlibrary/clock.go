package testlibrary

import "time"

// MediumLayout renders a medium date followed by a medium time, e.g.
// "Oct 17, 2026 at 9:41:05 AM".
const MediumLayout = "Jan 2, 2006 at 3:04:05 PM"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }

// Formatter renders timestamps and parses them back.
type Formatter interface {
	Format(t time.Time) string
	Parse(s string) (time.Time, error)
}

// LayoutFormatter formats with a time layout in a fixed location.
type LayoutFormatter struct {
	Layout   string
	Location *time.Location
}

// NewMediumFormatter returns a LayoutFormatter using MediumLayout in loc.
// A nil loc means time.Local.
func NewMediumFormatter(loc *time.Location) LayoutFormatter {
	if loc == nil {
		loc = time.Local
	}
	return LayoutFormatter{Layout: MediumLayout, Location: loc}
}

// Format renders t in the formatter's location.
func (f LayoutFormatter) Format(t time.Time) string {
	return t.In(f.location()).Format(f.Layout)
}

// Parse reads a string produced by Format.
func (f LayoutFormatter) Parse(s string) (time.Time, error) {
	return time.ParseInLocation(f.Layout, s, f.location())
}

func (f LayoutFormatter) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}
