// Package system provides a real clock implementation.
package system

import "time"

// Clock implements scrape.Clock using time.Now. Entries are stamped in
// UTC so datasets compare across machines.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
