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
	"sort"
	"strings"

	"k8s.io/klog/v2"
)

const (
	httpKey  = "http"
	httpsKey = "https"
)

// SchemeMap maps a protocol ("http", "https") to the proxy used
// for it. Maps handed out by this package are never modified
// after they're built.
type SchemeMap map[string]*Scheme

// Get returns the proxy for protocol, or nil
func (m SchemeMap) Get(protocol string) (s *Scheme) {
	s = m[protocol]
	return
}

// Keys returns the protocols present in m, sorted
func (m SchemeMap) Keys() (ks []string) {
	ks = make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return
}

// insert stores addr under key, in lower case. Empty or whitespace-only
// addresses are refused and leave m untouched. An address
// failing validation still counts as consumed: it removes
// whatever key held, so a broken setting never falls back to a
// lower precedence one.
func (m SchemeMap) insert(key, addr string) (ok bool) {
	if strings.TrimSpace(addr) == "" {
		return
	}
	ok = true
	key = strings.ToLower(key)
	s, e := ValidateAddress(addr)
	if e != nil {
		klog.Warningf("Ignoring proxy for %s: %v", key, e)
		delete(m, key)
		return
	}
	m[key] = s
	return
}
