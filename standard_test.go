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
	"io"
	h "net/http"
	ht "net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestProxy(t *testing.T, r *Resolver) (client *h.Client) {
	p := NewProxy(r, &IfaceDialer{Timeout: time.Second}, 10,
		time.Second, time.Second, time.Second)
	srv := ht.NewServer(p)
	t.Cleanup(srv.Close)
	pu, e := url.Parse(srv.URL)
	require.NoError(t, e)
	client = &h.Client{
		Transport: &h.Transport{Proxy: h.ProxyURL(pu)},
		Timeout:   5 * time.Second,
	}
	return
}

func TestProxyDirect(t *testing.T) {
	origin := ht.NewServer(h.HandlerFunc(
		func(w h.ResponseWriter, r *h.Request) {
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("X-Origin", "yes")
			io.WriteString(w, "from origin")
		}))
	defer origin.Close()
	r := New(nil, envLookup(nil))
	defer r.Close()

	resp, e := newTestProxy(t, r).Get(origin.URL + "/x")
	require.NoError(t, e)
	defer resp.Body.Close()
	bs, e := io.ReadAll(resp.Body)
	require.NoError(t, e)
	require.Equal(t, "from origin", string(bs))
	require.Equal(t, "yes", resp.Header.Get("X-Origin"))
}

func TestProxyThroughParent(t *testing.T) {
	auths := make(chan string, 1)
	parent := ht.NewServer(h.HandlerFunc(
		func(w h.ResponseWriter, r *h.Request) {
			auths <- r.Header.Get("Proxy-Authorization")
			io.WriteString(w, "from parent for "+r.URL.Host)
		}))
	defer parent.Close()
	pu, e := url.Parse(parent.URL)
	require.NoError(t, e)
	r := New(nil, envLookup(map[string]string{
		"HTTP_PROXY": "http://user:pw@" + pu.Host,
	}))
	defer r.Close()

	resp, e := newTestProxy(t, r).Get("http://origin.invalid/x")
	require.NoError(t, e)
	defer resp.Body.Close()
	bs, e := io.ReadAll(resp.Body)
	require.NoError(t, e)
	require.Equal(t, "from parent for origin.invalid", string(bs))
	s := r.Resolve(&url.URL{Scheme: "http"})
	require.Equal(t, s.AuthHeader(), <-auths)
}
