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
	"sync"

	alg "github.com/lamg/algorithms"
)

// hop-by-hop headers. Shouldn't be sent to the
// requested host.
// https://developer.mozilla.org/en-US/docs/
// Web/HTTP/Headers#hbh
var hopByHop = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate",
	"Proxy-Authorization", "Proxy-Connection", "TE", "Trailer",
	"Transfer-Encoding", "Upgrade",
}

func searchHopByHop(hd string) (ok bool) {
	hd = h.CanonicalHeaderKey(hd)
	ib := func(i int) (b bool) {
		b = hopByHop[i] == hd
		return
	}
	ok, _ = alg.BLnSrch(ib, len(hopByHop))
	return
}

func removeHopByHop(hd h.Header) {
	for k := range hd {
		if searchHopByHop(k) {
			hd.Del(k)
		}
	}
}

func copyHeader(dst, src h.Header) {
	for k, vv := range src {
		ok := searchHopByHop(k)
		if !ok {
			for _, v := range vv {
				dst.Add(k, v)
			}
		}
	}
}

func transferWg(wg *sync.WaitGroup,
	dest io.Writer, src io.Reader) {
	io.Copy(dest, src)
	wg.Done()
}

// transWait copies in both directions until both sides are
// done, then closes both
func transWait(dest, src io.ReadWriteCloser) {
	var wg sync.WaitGroup
	wg.Add(2)
	go transferWg(&wg, dest, src)
	go transferWg(&wg, src, dest)
	wg.Wait()
	dest.Close()
	src.Close()
}
