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
	"net"
	"net/url"
	"time"

	gp "golang.org/x/net/proxy"
)

const tcp = "tcp"

// Dialer has the signature of net.Dialer.DialContext
type Dialer func(context.Context, string, string) (net.Conn, error)

// IfaceDialer dials connections using the supplied network
// interface and timeout. It implements the
// golang.org/x/net/proxy.Dialer interface, and that allows to use
// it as forward dialer for DialProxy. If the interface is the
// empty string it uses the default provided by the OS.
type IfaceDialer struct {
	Interface string
	Timeout   time.Duration
}

func (d *IfaceDialer) Dial(network, addr string) (n net.Conn,
	e error) {
	n, e = d.DialContext(context.Background(), network, addr)
	return
}

func (d *IfaceDialer) DialContext(ctx context.Context, network,
	addr string) (n net.Conn, e error) {
	dlr := &net.Dialer{
		Timeout: d.Timeout,
	}
	if d.Interface != "" {
		var nf *net.Interface
		nf, e = net.InterfaceByName(d.Interface)
		var laddr []net.Addr
		if e == nil {
			laddr, e = nf.Addrs()
		}
		if e == nil && len(laddr) != 0 {
			dlr.LocalAddr = &net.TCPAddr{IP: laddr[0].(*net.IPNet).IP}
		} else if e == nil {
			e = &NoLocalIPErr{Interface: d.Interface}
		}
	}
	if e == nil {
		n, e = dlr.DialContext(ctx, network, addr)
	}
	return
}

// DialProxy dials addr through parentProxy, reaching the proxy
// with the supplied dialer
func DialProxy(ctx context.Context, network, addr string,
	parentProxy *Scheme, direct gp.Dialer) (n net.Conn, e error) {
	registerDialers()
	var d gp.Dialer
	d, e = gp.FromURL(parentProxy.URL(), direct)
	if e == nil {
		n, e = dialForward(ctx, d, network, addr)
	}
	return
}

// Dialer returns a Dialer for targets of the given scheme
// ("http", "https"): it tunnels through the proxy Resolve selects
// at dial time, or dials directly through direct when there is
// none
func (r *Resolver) Dialer(scheme string, direct gp.Dialer) (d Dialer) {
	d = func(ctx context.Context, network,
		addr string) (n net.Conn, e error) {
		parent := r.Resolve(&url.URL{Scheme: scheme, Host: addr})
		if parent != nil {
			n, e = DialProxy(ctx, network, addr, parent, direct)
		} else {
			n, e = dialForward(ctx, direct, network, addr)
		}
		return
	}
	return
}

// NoLocalIPErr implements error and is returned when there
// is no local IP associated to a network interface name
type NoLocalIPErr struct {
	Interface string
}

func (e *NoLocalIPErr) Error() (s string) {
	s = fmt.Sprintf("No local IP for '%s'", e.Interface)
	return
}
