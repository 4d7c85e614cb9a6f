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
	"time"
)

// PollSource is a Source for platforms that offer no change
// notification: Read is called every Interval and a notification
// is sent when its result differs from the previous one, or when
// it fails.
type PollSource struct {
	Platform string
	Interval time.Duration
	Read     func() (string, error)
}

func (p *PollSource) Fetch() (raw string, e error) {
	raw, e = p.Read()
	if e != nil {
		raw, e = "", &PlatformFetchErr{Platform: p.Platform, Err: e}
	}
	return
}

func (p *PollSource) Subscribe(ctx context.Context,
	notify chan<- struct{}) (e error) {
	if p.Interval <= 0 {
		e = fmt.Errorf("Invalid polling interval %s", p.Interval)
		return
	}
	last, _ := p.Read()
	go func() {
		tk := time.NewTicker(p.Interval)
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				raw, re := p.Read()
				if re != nil || raw != last {
					last = raw
					signal(notify)
				}
			}
		}
	}()
	return
}
