// Package identity generates short display names for connections that
// arrive without one.
package identity

import (
	"errors"
	"math/rand/v2"
)

// ErrSpaceExhausted is returned when no free identity could be found.
var ErrSpaceExhausted = errors.New("identity space exhausted")

const (
	// Alphabet and Length define the identity space: four lowercase
	// letters, 26^4 combinations.
	Alphabet = "abcdefghijklmnopqrstuvwxyz"
	Length   = 4

	// maxAttempts bounds random probing so Allocate cannot spin when the
	// space is nearly full.
	maxAttempts = 10000
)

// Allocator produces collision-free display identities. It keeps no history;
// an identity freed by a disconnect is immediately reusable.
type Allocator struct {
	alphabet string
	length   int
}

// NewAllocator returns an Allocator over the default alphabet and length.
func NewAllocator() *Allocator {
	return &Allocator{alphabet: Alphabet, length: Length}
}

// Allocate returns a candidate identity for which inUse reports false.
// The caller must make the check-and-reserve atomic: either hold the lock
// that guards the identity index, or call from the goroutine that owns it.
func (a *Allocator) Allocate(inUse func(string) bool) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		candidate := a.generate()
		if !inUse(candidate) {
			return candidate, nil
		}
	}
	return "", ErrSpaceExhausted
}

func (a *Allocator) generate() string {
	buf := make([]byte, a.length)
	for i := range buf {
		buf[i] = a.alphabet[rand.IntN(len(a.alphabet))]
	}
	return string(buf)
}
