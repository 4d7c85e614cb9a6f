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

// Sysproxy selects the parent proxy an HTTP client must use for
// each outbound request. Addresses come from the process
// environment (ALL_PROXY, HTTP_PROXY, HTTPS_PROXY and their lower
// case forms), which always wins scheme by scheme, and from the
// operating system proxy settings, which are cached and refreshed
// in the background whenever the OS reports a change.
//
// The selector plugs into net/http.Transport.Proxy, into
// golang.org/x/net/proxy dialers and into
// github.com/valyala/fasthttp clients. The package also carries an
// HTTP/HTTPS forward proxy that chains through the selected parent
// proxy, served using net/http.Server or fasthttp.Server
package sysproxy
