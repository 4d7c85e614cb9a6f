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
	h "net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"k8s.io/klog/v2"
)

const fetchRetries = 3

// Resolver selects the proxy for a target URL. Environment
// settings are read once, on first use, and take precedence
// scheme by scheme over the OS settings, which are kept fresh by
// a Watcher started on first use.
type Resolver struct {
	env     func() SchemeMap
	cache   *Cache
	watcher *Watcher
}

// New returns a Resolver reading the environment through lookup
// and the OS settings from src. src is queried once here, so
// the cache never starts empty while the OS has a proxy.
func New(src Source, lookup LookupEnv) (r *Resolver) {
	if src == nil {
		src = NoSource{}
	}
	raw, e := src.Fetch()
	if e != nil {
		klog.Errorf("Reading OS proxy settings: %v", e)
		raw = ""
	}
	cache := NewCache(ParsePlatformValues(raw))
	r = &Resolver{
		env: sync.OnceValue(func() SchemeMap {
			return FromEnvironment(lookup)
		}),
		cache:   cache,
		watcher: NewWatcher(src, cache, fetchRetries),
	}
	return
}

// NewSystem returns a Resolver over the process environment and
// the DefaultSource of the running platform
func NewSystem() (r *Resolver) {
	r = New(DefaultSource(), os.LookupEnv)
	return
}

// Resolve returns the proxy for u, or nil when u must be
// reached directly
func (r *Resolver) Resolve(u *url.URL) (s *Scheme) {
	r.watcher.Start()
	if u == nil {
		return
	}
	key := strings.ToLower(u.Scheme)
	s = r.env().Get(key)
	if s == nil {
		s = r.cache.Load().Get(key)
	}
	return
}

// ProxyFunc adapts Resolve to net/http.Transport.Proxy
func (r *Resolver) ProxyFunc() func(*h.Request) (*url.URL, error) {
	return func(req *h.Request) (u *url.URL, e error) {
		if s := r.Resolve(req.URL); s != nil {
			u = s.URL()
		}
		return
	}
}

// Close stops watching the OS settings. The last snapshot keeps
// being served.
func (r *Resolver) Close() {
	r.watcher.Stop()
}
