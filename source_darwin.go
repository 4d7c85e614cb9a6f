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

//go:build darwin

package sysproxy

import (
	"os/exec"
	"time"

	"github.com/pkg/errors"
)

// DefaultSource polls the global proxy settings of the
// SystemConfiguration framework, through scutil, every five
// seconds
func DefaultSource() (s Source) {
	s = &PollSource{
		Platform: "darwin",
		Interval: 5 * time.Second,
		Read:     readScutil,
	}
	return
}

func readScutil() (raw string, e error) {
	out, e := exec.Command("scutil", "--proxy").Output()
	if e != nil {
		e = errors.Wrap(e, "running scutil --proxy")
		return
	}
	raw = parseScutil(string(out))
	return
}
