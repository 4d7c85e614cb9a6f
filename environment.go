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
	"k8s.io/klog/v2"
)

// LookupEnv has the signature of os.LookupEnv
type LookupEnv func(string) (string, bool)

// FromEnvironment builds the SchemeMap defined by the proxy
// environment variables read through lookup.
//
// ALL_PROXY is tried for http and https as a pair; when that
// fails all_proxy is tried as a pair. HTTP_PROXY, else
// http_proxy, then overrides http, except inside a CGI request
// (REQUEST_METHOD set) where a client controlled "Proxy" header
// would land in HTTP_PROXY. HTTPS_PROXY, else https_proxy,
// overrides https.
func FromEnvironment(lookup LookupEnv) (m SchemeMap) {
	m = make(SchemeMap)
	fromEnv := func(key, name string) (ok bool) {
		v, set := lookup(name)
		ok = set && m.insert(key, v)
		return
	}
	if !(fromEnv(httpKey, "ALL_PROXY") && fromEnv(httpsKey, "ALL_PROXY")) {
		fromEnv(httpKey, "all_proxy")
		fromEnv(httpsKey, "all_proxy")
	}
	if _, cgi := lookup("REQUEST_METHOD"); cgi {
		if _, set := lookup("HTTP_PROXY"); set {
			klog.Warning("HTTP_PROXY environment variable ignored in CGI")
		}
	} else if !fromEnv(httpKey, "HTTP_PROXY") {
		fromEnv(httpKey, "http_proxy")
	}
	if !fromEnv(httpsKey, "HTTPS_PROXY") {
		fromEnv(httpsKey, "https_proxy")
	}
	return
}
