package testlibrary

import (
	"fmt"
	"math/bits"
	"time"
)

// Version is the TestLibrary release embedded in every greeting.
const Version = "1.0.0"

// Greeter exposes the TestLibrary operations.
type Greeter struct {
	clock     Clock
	formatter Formatter
}

// Option configures a Greeter.
type Option func(*Greeter)

// WithClock sets the time source used by CurrentTimestamp.
func WithClock(c Clock) Option {
	return func(g *Greeter) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithFormatter sets the formatter used by CurrentTimestamp.
func WithFormatter(f Formatter) Option {
	return func(g *Greeter) {
		if f != nil {
			g.formatter = f
		}
	}
}

// WithLocation renders timestamps in loc using the medium date/time style.
func WithLocation(loc *time.Location) Option {
	return func(g *Greeter) {
		g.formatter = NewMediumFormatter(loc)
	}
}

// New returns a Greeter reading the system clock and formatting in time.Local.
func New(opts ...Option) *Greeter {
	g := &Greeter{
		clock:     SystemClock{},
		formatter: NewMediumFormatter(time.Local),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Greet returns a greeting for name. Any string is accepted, including "".
func (g *Greeter) Greet(name string) string {
	return fmt.Sprintf("Hello, %s! This is TestLibrary v%s", name, Version)
}

// CurrentTimestamp returns the current time in the configured format.
func (g *Greeter) CurrentTimestamp() string {
	return g.formatter.Format(g.clock.Now())
}

// Add returns a + b, or an *OverflowError when the sum does not fit in an int.
func (g *Greeter) Add(a, b int) (int, error) {
	sum := a + b
	// Overflow iff both operands share a sign that the result does not.
	if (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0) {
		return 0, &OverflowError{A: a, B: b, Bits: bits.UintSize}
	}
	return sum, nil
}
