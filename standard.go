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
	"io"
	"net"
	h "net/http"
	"time"

	gp "golang.org/x/net/proxy"
)

// Proxy is an HTTP/HTTPS forward proxy that chains every
// connection through the parent proxy its Resolver selects
type Proxy struct {
	trans       *h.Transport
	dialContext Dialer
}

// NewProxy creates a net/http.Handler ready to be used as an
// HTTP/HTTPS proxy server in conjunction with a net/http.Server.
// Parent proxies, and destinations without one, are reached
// through direct.
func NewProxy(
	r *Resolver,
	direct gp.Dialer,
	maxIdleConns int,
	idleConnTimeout,
	tlsHandshakeTimeout,
	expectContinueTimeout time.Duration,
) (p *Proxy) {
	p = &Proxy{
		// CONNECT tunnels carry TLS almost always
		dialContext: r.Dialer("https", direct),
		trans: &h.Transport{
			Proxy: r.ProxyFunc(),
			DialContext: func(ctx context.Context, network,
				addr string) (net.Conn, error) {
				return dialForward(ctx, direct, network, addr)
			},
			MaxIdleConns:          maxIdleConns,
			IdleConnTimeout:       idleConnTimeout,
			TLSHandshakeTimeout:   tlsHandshakeTimeout,
			ExpectContinueTimeout: expectContinueTimeout,
		},
	}
	return
}

func (p *Proxy) ServeHTTP(w h.ResponseWriter,
	r *h.Request) {
	if r.Method == h.MethodConnect {
		p.handleTunneling(w, r)
	} else {
		p.handleHTTP(w, r)
	}
}

func (p *Proxy) handleTunneling(w h.ResponseWriter,
	r *h.Request) {
	destConn, e := p.dialContext(r.Context(), tcp, r.Host)
	var hijacker h.Hijacker
	status := h.StatusOK
	if e == nil {
		var ok bool
		hijacker, ok = w.(h.Hijacker)
		if !ok {
			destConn.Close()
			e, status = noHijacking(), h.StatusInternalServerError
		}
	} else {
		status = h.StatusServiceUnavailable
	}
	var clientConn net.Conn
	if e == nil {
		w.WriteHeader(status)
		clientConn, _, e = hijacker.Hijack()
		if e == nil {
			go transWait(destConn, clientConn)
		} else {
			destConn.Close()
		}
		return
	}
	h.Error(w, e.Error(), status)
}

func (p *Proxy) handleHTTP(w h.ResponseWriter,
	req *h.Request) {
	out := req.Clone(req.Context())
	out.RequestURI = ""
	removeHopByHop(out.Header)
	resp, e := p.trans.RoundTrip(out)
	if e == nil {
		copyHeader(w.Header(), resp.Header)
		w.WriteHeader(resp.StatusCode)
		io.Copy(w, resp.Body)
		resp.Body.Close()
	} else {
		h.Error(w, e.Error(), h.StatusServiceUnavailable)
	}
}

// noHijacking error
func noHijacking() (e error) {
	e = fmt.Errorf("No hijacking supported")
	return
}
