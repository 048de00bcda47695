// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"sync"
	"sync/atomic"
)

// Guard suppresses state-change notifications while the session itself is
// writing back a state it just read, so the listener that would react to
// that change does not fire a new command. Suppression nests.
type Guard struct {
	depth atomic.Int32
}

// Suppress starts suppressing notifications. The returned release func ends
// this suppression; calling it more than once has no further effect.
func (g *Guard) Suppress() (release func()) {
	g.depth.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { g.depth.Add(-1) })
	}
}

// Suppressed reports whether notifications should currently be ignored
func (g *Guard) Suppressed() bool {
	return g.depth.Load() > 0
}

// Do runs fn with notifications suppressed, releasing on every exit path
// including panics
func (g *Guard) Do(fn func()) {
	release := g.Suppress()
	defer release()
	fn()
}
