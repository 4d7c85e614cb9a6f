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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// summary renders m as protocol → redacted proxy URL
func summary(m SchemeMap) (r map[string]string) {
	r = make(map[string]string, len(m))
	for k, v := range m {
		r[k] = v.String()
	}
	return
}

func TestParsePlatformValues(t *testing.T) {
	ts := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"none", "", map[string]string{}},
		{
			"per protocol",
			"http=10.0.0.1:3128;https=10.0.0.2:3129",
			map[string]string{
				"http":  "http://10.0.0.1:3128",
				"https": "http://10.0.0.2:3129",
			},
		},
		{
			"per protocol with explicit scheme",
			"http=proxy.local:80;https=https://secure.local:443",
			map[string]string{
				"http":  "http://proxy.local:80",
				"https": "https://secure.local:443",
			},
		},
		{
			"single protocol",
			"http=10.0.0.1:3128",
			map[string]string{"http": "http://10.0.0.1:3128"},
		},
		{
			"single address",
			"proxy.local:8080",
			map[string]string{
				"http":  "http://proxy.local:8080",
				"https": "http://proxy.local:8080",
			},
		},
		{
			"single address with scheme",
			"https://secure.local:8443",
			map[string]string{"https": "https://secure.local:8443"},
		},
		{
			"upper case protocols",
			"HTTP=proxy.local:80;Https=secure.local:443",
			map[string]string{
				"http":  "http://proxy.local:80",
				"https": "http://secure.local:443",
			},
		},
		{
			"upper case single address scheme",
			"HTTPS://secure.local:8443",
			map[string]string{"https": "https://secure.local:8443"},
		},
		{
			"unsupported single address",
			"socks5://proxy.local:1080",
			map[string]string{},
		},
		{
			"invalid entry dropped",
			"http=proxy.local:8080;https=socks5://proxy.local:1080",
			map[string]string{"http": "http://proxy.local:8080"},
		},
		{
			"empty entry dropped",
			"http=;https=proxy.local:8080",
			map[string]string{"https": "http://proxy.local:8080"},
		},
		{
			"malformed segment clears",
			"http=proxy.local:8080;https",
			map[string]string{},
		},
		{
			"too many equal signs clears",
			"http=proxy.local:8080;https=a=b;ftp=ftp.local:21",
			map[string]string{},
		},
		{
			"trailing separator clears",
			"http=proxy.local:8080;",
			map[string]string{},
		},
	}
	for _, j := range ts {
		got := summary(ParsePlatformValues(j.raw))
		if d := cmp.Diff(j.want, got); d != "" {
			t.Errorf("%s: ParsePlatformValues(%q) mismatch (-want +got):\n%s",
				j.name, j.raw, d)
		}
	}
}

func TestSingleAddressSharedByBothProtocols(t *testing.T) {
	m := ParsePlatformValues("proxy.local:8080")
	require.Equal(t, []string{"http", "https"}, m.Keys())
	require.Equal(t, m.Get("http").String(), m.Get("https").String())
	require.Equal(t, HTTP, m.Get("https").Kind())
}

func TestExtractTypePrefix(t *testing.T) {
	ts := []struct {
		addr   string
		prefix string
		ok     bool
	}{
		{"http://a", "http", true},
		{"socks5://a:1", "socks5", true},
		{"a:1", "", false},
		{"a:1/x://b", "", false},
		{"user:pass@a", "", false},
		{"http=a://b", "http=a", true},
	}
	for _, j := range ts {
		p, ok := extractTypePrefix(j.addr)
		require.Equal(t, j.ok, ok, j.addr)
		require.Equal(t, j.prefix, p, j.addr)
	}
}
