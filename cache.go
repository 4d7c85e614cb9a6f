// Copyright © 2018-2019 Luis Ángel Méndez Gort

// This file is part of Sysproxy.

// Sysproxy is free software: you can redistribute it and/or
// modify it under the terms of the GNU Lesser General
// Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your
// option) any later version.

// Sysproxy is distributed in the hope that it will be
// useful, but WITHOUT ANY WARRANTY; without even the
// implied warranty of MERCHANTABILITY or FITNESS FOR A
// PARTICULAR PURPOSE. See the GNU Lesser General Public
// License for more details.

// You should have received a copy of the GNU Lesser General
// Public License along with Sysproxy.  If not, see
// <https://www.gnu.org/licenses/>.

package sysproxy

import (
	"sync/atomic"
)

// Cache holds the current snapshot of the OS proxy settings.
// Load and Store never block each other: Store installs a whole
// new map and readers keep whichever map was current when they
// called Load.
type Cache struct {
	current atomic.Pointer[snapshot]
}

type snapshot struct {
	generation uint64
	schemes    SchemeMap
}

// NewCache returns a Cache whose first snapshot is initial
func NewCache(initial SchemeMap) (c *Cache) {
	c = new(Cache)
	if initial == nil {
		initial = make(SchemeMap)
	}
	c.current.Store(&snapshot{schemes: initial})
	return
}

// Load returns the current snapshot. It must not be modified.
func (c *Cache) Load() (m SchemeMap) {
	m = c.current.Load().schemes
	return
}

// Store replaces the current snapshot with m. Only one goroutine
// writes a given Cache, so the generation count is exact.
func (c *Cache) Store(m SchemeMap) {
	if m == nil {
		m = make(SchemeMap)
	}
	prev := c.current.Load()
	c.current.Store(&snapshot{
		generation: prev.generation + 1,
		schemes:    m,
	})
}

// Generation is the number of Store calls the current snapshot
// comes after
func (c *Cache) Generation() (g uint64) {
	g = c.current.Load().generation
	return
}
