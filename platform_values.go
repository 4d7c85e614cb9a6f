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
	"strings"

	alg "github.com/lamg/algorithms"
)

// ParsePlatformValues turns the raw string reported by the
// operating system into a SchemeMap. The empty string means the
// OS has no proxy configured.
//
// A string containing '=' is a list of "protocol=address"
// segments separated by ';'. Any segment that doesn't split in
// exactly two parts invalidates the whole list and the result is
// empty. Otherwise the string is a single address: with an
// explicit "scheme://" prefix it's stored under that scheme,
// without one it's read as http and stored under both "http"
// and "https". Addresses failing ValidateAddress are dropped.
func ParsePlatformValues(raw string) (m SchemeMap) {
	m = make(SchemeMap)
	if raw == "" {
		return
	}
	if strings.Contains(raw, "=") {
		for _, seg := range strings.Split(raw, ";") {
			parts := strings.Split(seg, "=")
			if len(parts) != 2 {
				m = make(SchemeMap)
				break
			}
			protocol, addr := parts[0], parts[1]
			if _, ok := extractTypePrefix(addr); !ok {
				addr = "http://" + addr
			}
			m.insert(protocol, addr)
		}
	} else if scheme, ok := extractTypePrefix(raw); ok {
		m.insert(scheme, raw)
	} else {
		m.insert(httpKey, "http://"+raw)
		m.insert(httpsKey, "http://"+raw)
	}
	return
}

// extractTypePrefix returns the scheme of addr when it's written
// as "scheme://rest" and the text before "://" has neither ':'
// nor '/'
func extractTypePrefix(addr string) (prefix string, ok bool) {
	i := strings.Index(addr, "://")
	if i != -1 {
		prefix = addr[:i]
		ib := func(j int) (b bool) {
			b = prefix[j] == ':' || prefix[j] == '/'
			return
		}
		var found bool
		found, _ = alg.BLnSrch(ib, len(prefix))
		ok = !found
		if !ok {
			prefix = ""
		}
	}
	return
}
