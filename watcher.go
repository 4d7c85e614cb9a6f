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
	"sync"

	"github.com/cenkalti/backoff/v4"
	"k8s.io/klog/v2"
)

// Watcher keeps a Cache in sync with a Source. After Start it
// waits for change notifications from the Source and, for each
// one, fetches and parses the current setting and stores it in
// the Cache. A failed fetch leaves the Cache as it was.
type Watcher struct {
	src     Source
	cache   *Cache
	retries uint64

	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher returns a stopped Watcher that retries a failed
// fetch up to retries times with exponential backoff
func NewWatcher(src Source, cache *Cache, retries uint64) (w *Watcher) {
	ctx, cancel := context.WithCancel(context.Background())
	w = &Watcher{
		src:     src,
		cache:   cache,
		retries: retries,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	return
}

// Start launches the watching goroutine. Only the first call
// has effect.
func (w *Watcher) Start() {
	w.once.Do(func() {
		go w.run()
	})
}

// Stop ends the watching goroutine and waits for it. A Watcher
// can't be restarted: Start after Stop does nothing.
func (w *Watcher) Stop() {
	w.cancel()
	w.once.Do(func() {
		close(w.done)
	})
	<-w.done
}

func (w *Watcher) run() {
	defer close(w.done)
	notify := make(chan struct{}, 1)
	if e := w.src.Subscribe(w.ctx, notify); e != nil {
		klog.Errorf("Not watching OS proxy settings: %v", e)
		return
	}
	// changes made before subscribing aren't notified
	w.refresh()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-notify:
			w.refresh()
		}
	}
}

func (w *Watcher) refresh() {
	var raw string
	fetch := func() (e error) {
		raw, e = w.src.Fetch()
		return
	}
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), w.retries),
		w.ctx)
	if e := backoff.Retry(fetch, bo); e != nil {
		klog.Errorf("Keeping OS proxy settings (generation %d): %v",
			w.cache.Generation(), e)
		return
	}
	m := ParsePlatformValues(raw)
	w.cache.Store(m)
	klog.V(2).Infof("OS proxy settings updated (generation %d): %v",
		w.cache.Generation(), m.Keys())
}
