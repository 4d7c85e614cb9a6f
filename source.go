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
	"context"
	"fmt"
)

// Source reports the operating system proxy settings.
//
// Fetch returns the raw setting in the grammar read by
// ParsePlatformValues, or the empty string when no proxy is
// configured. Subscribe arranges for a value to be sent on
// notify each time the setting may have changed, until ctx is
// done; it returns once delivery is set up. Sends on notify
// must not block: a pending notification already covers any
// later change.
type Source interface {
	Fetch() (string, error)
	Subscribe(ctx context.Context, notify chan<- struct{}) error
}

// PlatformFetchErr is returned by a Source that couldn't read
// the current OS proxy settings
type PlatformFetchErr struct {
	Platform string
	Err      error
}

func (e *PlatformFetchErr) Error() (s string) {
	s = fmt.Sprintf("Fetching %s proxy settings: %v", e.Platform, e.Err)
	return
}

func (e *PlatformFetchErr) Unwrap() error { return e.Err }

// signal sends on notify without blocking
func signal(notify chan<- struct{}) {
	select {
	case notify <- struct{}{}:
	default:
	}
}

// NoSource reports no OS proxy and never changes
type NoSource struct{}

func (NoSource) Fetch() (raw string, e error) { return }

func (NoSource) Subscribe(ctx context.Context,
	notify chan<- struct{}) (e error) {
	return
}
