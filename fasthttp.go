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
	"net"
	h "net/http"
	"time"

	fh "github.com/valyala/fasthttp"
	gp "golang.org/x/net/proxy"
)

// NewFastProxy creates a github.com/valyala/fasthttp request
// handler behaving as the Proxy returned by NewProxy
func NewFastProxy(
	r *Resolver,
	direct gp.Dialer,
	dialTimeout,
	idleConnTimeout time.Duration,
) (hn fh.RequestHandler) {
	p := &fastProxy{
		tunnel:  r.Dialer("https", direct),
		timeout: dialTimeout,
		fastCl: &fh.Client{
			Dial:                r.FastDial(direct, dialTimeout),
			MaxIdleConnDuration: idleConnTimeout,
		},
	}
	hn = p.fastHandler
	return
}

type fastProxy struct {
	tunnel  Dialer
	timeout time.Duration
	fastCl  *fh.Client
}

func (p *fastProxy) fastHandler(ctx *fh.RequestCtx) {
	if ctx.IsConnect() {
		dctx, cancel := timeoutCtx(p.timeout)
		dest, e := p.tunnel(dctx, tcp, string(ctx.Host()))
		cancel()
		if e == nil {
			ctx.Hijack(func(client net.Conn) {
				transWait(dest, client)
			})
		} else {
			ctx.Error(e.Error(), h.StatusServiceUnavailable)
		}
		return
	}
	for _, k := range hopByHop {
		ctx.Request.Header.Del(k)
	}
	if e := p.fastCl.Do(&ctx.Request, &ctx.Response); e != nil {
		ctx.Error(e.Error(), h.StatusServiceUnavailable)
		return
	}
	for _, k := range hopByHop {
		ctx.Response.Header.Del(k)
	}
}

// FastDial returns a fasthttp.DialFunc tunneling through the
// proxy selected for each address. fasthttp hands over no
// scheme, so port 443 is taken as https and any other as http.
func (r *Resolver) FastDial(direct gp.Dialer,
	timeout time.Duration) (d fh.DialFunc) {
	httpD, httpsD := r.Dialer("http", direct), r.Dialer("https", direct)
	d = func(addr string) (c net.Conn, e error) {
		dial := httpD
		if _, port, _ := net.SplitHostPort(addr); port == HTTPS.DefaultPort() {
			dial = httpsD
		}
		ctx, cancel := timeoutCtx(timeout)
		defer cancel()
		c, e = dial(ctx, tcp, addr)
		return
	}
	return
}

// timeoutCtx bounds a dial by t, when t is positive
func timeoutCtx(t time.Duration) (context.Context, context.CancelFunc) {
	if t <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), t)
}
