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
	"bufio"
	"strings"
)

// parseScutil renders the output of `scutil --proxy` in the
// grammar read by ParsePlatformValues, keeping the http and
// https entries that are enabled and name a host
func parseScutil(out string) (raw string) {
	vals := make(map[string]string)
	depth := 0
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		ln := strings.TrimSpace(sc.Text())
		if ln == "}" {
			depth--
			continue
		}
		k, v, ok := strings.Cut(ln, " : ")
		if strings.HasSuffix(ln, "{") {
			depth++
			continue
		}
		if ok && depth == 1 {
			vals[k] = v
		}
	}
	var entries []string
	for _, p := range []struct{ proto, prefix string }{
		{httpKey, "HTTP"},
		{httpsKey, "HTTPS"},
	} {
		host := vals[p.prefix+"Proxy"]
		if vals[p.prefix+"Enable"] != "1" || host == "" {
			continue
		}
		entry := p.proto + "=" + host
		if port := vals[p.prefix+"Port"]; port != "" {
			entry = entry + ":" + port
		}
		entries = append(entries, entry)
	}
	raw = strings.Join(entries, ";")
	return
}
