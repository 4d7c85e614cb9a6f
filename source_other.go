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

//go:build !windows && !darwin

package sysproxy

import (
	"os"
	"path/filepath"
)

// DefaultSource returns a FileSource at
// $XDG_CONFIG_HOME/sysproxy/proxy, or NoSource when there's no
// user configuration directory
func DefaultSource() (s Source) {
	dir, e := os.UserConfigDir()
	if e == nil {
		s = &FileSource{Path: filepath.Join(dir, "sysproxy", "proxy")}
	} else {
		s = NoSource{}
	}
	return
}
