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
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Kind is the transport spoken with the proxy server itself
type Kind int

const (
	HTTP Kind = iota
	HTTPS
)

func (k Kind) String() (s string) {
	s = "http"
	if k == HTTPS {
		s = "https"
	}
	return
}

// DefaultPort is the port assumed when a proxy address
// has none
func (k Kind) DefaultPort() (p string) {
	p = "80"
	if k == HTTPS {
		p = "443"
	}
	return
}

// Scheme is a validated proxy server address: the transport used
// to reach it, its authority (host plus optional port) and the
// Proxy-Authorization value derived from its credentials, if any.
// A Scheme is immutable once built by ValidateAddress.
type Scheme struct {
	kind Kind
	host string
	user *url.Userinfo
	auth string
}

// ValidateAddress builds a Scheme from a raw proxy address. An
// address without an explicit "scheme://" prefix is read as
// http. Only http and https proxies are accepted; path, query
// and fragment are discarded.
func ValidateAddress(raw string) (s *Scheme, e error) {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		e = &BuilderErr{Addr: raw, Reason: "empty address"}
		return
	}
	if _, ok := extractTypePrefix(addr); !ok {
		addr = "http://" + addr
	}
	u, pe := url.Parse(addr)
	if pe != nil {
		if ue, ok := pe.(*url.Error); ok {
			pe = ue.Err
		}
		e = &BuilderErr{Addr: raw, Reason: "malformed address", Err: pe}
		return
	}
	s = new(Scheme)
	switch u.Scheme {
	case "http":
		s.kind = HTTP
	case "https":
		s.kind = HTTPS
	default:
		s, e = nil, &BuilderErr{
			Addr:   raw,
			Reason: fmt.Sprintf("unsupported proxy scheme '%s'", u.Scheme),
		}
		return
	}
	s.host, e = authority(u)
	if e != nil {
		s, e = nil, &BuilderErr{Addr: raw, Reason: "invalid authority", Err: e}
		return
	}
	if u.User != nil {
		user := u.User.Username()
		pass, hasPass := u.User.Password()
		if user != "" || hasPass {
			s.user = u.User
			s.auth = basicAuth(user, pass)
		}
	}
	return
}

// authority returns host[:port] of u, rejecting an empty host
// or a port out of range
func authority(u *url.URL) (a string, e error) {
	host, port := u.Hostname(), u.Port()
	if host == "" {
		e = fmt.Errorf("missing host")
		return
	}
	if port != "" {
		n, ce := strconv.Atoi(port)
		if ce != nil || n < 1 || n > 65535 {
			e = fmt.Errorf("invalid port '%s'", port)
			return
		}
		a = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		a = "[" + host + "]"
	} else {
		a = host
	}
	return
}

func basicAuth(user, pass string) (h string) {
	h = "Basic " + base64.StdEncoding.EncodeToString(
		[]byte(user+":"+pass))
	return
}

// Kind is the transport used to reach the proxy
func (s *Scheme) Kind() (k Kind) { k = s.kind; return }

// Host is the proxy authority as written, host[:port]
func (s *Scheme) Host() (h string) { h = s.host; return }

// Addr is the proxy authority with the default port of its
// kind filled in, ready to be dialed
func (s *Scheme) Addr() (a string) {
	a = s.host
	if _, p, e := net.SplitHostPort(s.host); e != nil || p == "" {
		a = net.JoinHostPort(strings.Trim(s.host, "[]"),
			s.kind.DefaultPort())
	}
	return
}

// AuthHeader is the pre-encoded Proxy-Authorization value, or
// the empty string when the address carries no credentials
func (s *Scheme) AuthHeader() (h string) { h = s.auth; return }

// URL is the proxy address as net/http.Transport.Proxy expects
// it, credentials included
func (s *Scheme) URL() (u *url.URL) {
	u = &url.URL{Scheme: s.kind.String(), Host: s.host, User: s.user}
	return
}

// String is the proxy address with its password redacted
func (s *Scheme) String() (r string) {
	r = s.URL().Redacted()
	return
}

// BuilderErr is returned when a proxy address is malformed or
// names a proxy scheme other than http or https
type BuilderErr struct {
	Addr   string
	Reason string
	Err    error
}

func (e *BuilderErr) Error() (s string) {
	s = fmt.Sprintf("Invalid proxy address '%s': %s",
		redactAddr(e.Addr), e.Reason)
	if e.Err != nil {
		s = s + ": " + e.Err.Error()
	}
	return
}

func (e *BuilderErr) Unwrap() error { return e.Err }

// redactAddr hides the user information of a raw address that
// may not parse as a URL
func redactAddr(addr string) (r string) {
	r = addr
	at := strings.LastIndex(addr, "@")
	if at != -1 {
		start := 0
		if i := strings.Index(addr, "://"); i != -1 && i < at {
			start = i + 3
		}
		r = addr[:start] + "xxxxx" + addr[at:]
	}
	return
}
