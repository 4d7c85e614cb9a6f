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

//go:build windows

package sysproxy

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows/registry"
)

const internetSettings = `Software\Microsoft\Windows\CurrentVersion\Internet Settings`

// DefaultSource polls the WinINet settings of the current user
// every five seconds
func DefaultSource() (s Source) {
	s = &PollSource{
		Platform: "windows",
		Interval: 5 * time.Second,
		Read:     readInternetSettings,
	}
	return
}

// readInternetSettings returns ProxyServer when ProxyEnable is
// set. Missing values mean no proxy.
func readInternetSettings() (raw string, e error) {
	k, e := registry.OpenKey(registry.CURRENT_USER, internetSettings,
		registry.QUERY_VALUE)
	if errors.Is(e, registry.ErrNotExist) {
		e = nil
		return
	}
	if e != nil {
		e = errors.Wrap(e, "opening Internet Settings")
		return
	}
	defer k.Close()
	enable, _, e := k.GetIntegerValue("ProxyEnable")
	if errors.Is(e, registry.ErrNotExist) {
		enable, e = 0, nil
	}
	if e != nil {
		e = errors.Wrap(e, "reading ProxyEnable")
		return
	}
	if enable == 0 {
		return
	}
	raw, _, e = k.GetStringValue("ProxyServer")
	if errors.Is(e, registry.ErrNotExist) {
		raw, e = "", nil
	} else if e != nil {
		e = errors.Wrap(e, "reading ProxyServer")
	}
	return
}
