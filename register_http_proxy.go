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
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/proxy"
)

var registerOnce sync.Once

// registerDialers makes golang.org/x/net/proxy.FromURL build a
// connectDialer for http and https proxy URLs
func registerDialers() {
	registerOnce.Do(func() {
		proxy.RegisterDialerType("http", newConnectDialer)
		proxy.RegisterDialerType("https", newConnectDialer)
	})
}

// connectDialer opens tunnels through an HTTP proxy with the
// CONNECT method, speaking TLS to the proxy when its kind is
// HTTPS
type connectDialer struct {
	proxy   *Scheme
	forward proxy.Dialer
}

func newConnectDialer(uri *url.URL,
	forward proxy.Dialer) (dlr proxy.Dialer, e error) {
	var s *Scheme
	s, e = ValidateAddress(uri.String())
	if e == nil {
		dlr = &connectDialer{proxy: s, forward: forward}
	}
	return
}

func (s *connectDialer) Dial(network,
	addr string) (net.Conn, error) {
	return s.DialContext(context.Background(), network, addr)
}

func (s *connectDialer) DialContext(ctx context.Context, network,
	addr string) (net.Conn, error) {
	c, err := dialForward(ctx, s.forward, tcp, s.proxy.Addr())
	if err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		c.SetDeadline(dl)
		defer c.SetDeadline(time.Time{})
	}
	if s.proxy.Kind() == HTTPS {
		host, _, _ := net.SplitHostPort(s.proxy.Addr())
		tc := tls.Client(c, &tls.Config{ServerName: host})
		if err = tc.HandshakeContext(ctx); err != nil {
			c.Close()
			return nil, err
		}
		c = tc
	}

	// HACK. http.ReadRequest also does this.
	reqURL, err := url.Parse("https://" + addr)
	if err != nil {
		c.Close()
		return nil, err
	}
	reqURL.Scheme = ""

	req, err := http.NewRequest(http.MethodConnect,
		reqURL.String(), nil)
	if err != nil {
		c.Close()
		return nil, err
	}
	req.Close = false
	req.Host = addr
	if auth := s.proxy.AuthHeader(); auth != "" {
		req.Header.Set("Proxy-Authorization", auth)
	}

	err = req.Write(c)
	if err != nil {
		c.Close()
		return nil, err
	}

	br := bufio.NewReader(c)
	resp, err := http.ReadResponse(br, req)
	if err != nil {
		c.Close()
		return nil, err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.Close()
		err = &ExpectingCodeErr{
			Context:  "Connect server using proxy error",
			Expected: http.StatusOK,
			Actual:   resp.StatusCode,
		}
		return nil, err
	}
	if br.Buffered() != 0 {
		c = &bufferedConn{Conn: c, r: br}
	}
	return c, nil
}

// bufferedConn keeps the bytes the proxy sent right after its
// CONNECT response
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (b *bufferedConn) Read(p []byte) (int, error) {
	return b.r.Read(p)
}

func dialForward(ctx context.Context, forward proxy.Dialer,
	network, addr string) (c net.Conn, e error) {
	if cd, ok := forward.(proxy.ContextDialer); ok {
		c, e = cd.DialContext(ctx, network, addr)
	} else {
		c, e = forward.Dial(network, addr)
	}
	return
}

type ExpectingCodeErr struct {
	Context  string
	Expected int
	Actual   int
}

func (e *ExpectingCodeErr) Error() (s string) {
	s = fmt.Sprintf("%s:Expecting response status code %d, got %d",
		e.Context, e.Expected, e.Actual)
	return
}
