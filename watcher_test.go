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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSource is a Source whose setting is changed by the test
type fakeSource struct {
	mu           sync.Mutex
	raw          string
	err          error
	fetches      int
	subscribes   int
	subscribeErr error
	notify       chan<- struct{}
	subscribed   chan struct{}
}

func newFakeSource(raw string) (f *fakeSource) {
	f = &fakeSource{raw: raw, subscribed: make(chan struct{})}
	return
}

func (f *fakeSource) Fetch() (raw string, e error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	raw, e = f.raw, f.err
	return
}

func (f *fakeSource) Subscribe(ctx context.Context,
	notify chan<- struct{}) (e error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	if f.subscribeErr != nil {
		e = f.subscribeErr
		return
	}
	f.notify = notify
	close(f.subscribed)
	return
}

// change sets the reported value and notifies the subscriber
func (f *fakeSource) change(t *testing.T, raw string, e error) {
	select {
	case <-f.subscribed:
	case <-time.After(time.Second):
		t.Fatal("source never subscribed")
	}
	f.mu.Lock()
	f.raw, f.err = raw, e
	notify := f.notify
	f.mu.Unlock()
	notify <- struct{}{}
}

func (f *fakeSource) fetchCount() (n int) {
	f.mu.Lock()
	n = f.fetches
	f.mu.Unlock()
	return
}

func TestWatcherRefresh(t *testing.T) {
	src := newFakeSource("")
	c := NewCache(nil)
	w := NewWatcher(src, c, 0)
	w.Start()
	defer w.Stop()

	src.change(t, "http=a.local:1", nil)
	require.Eventually(t, func() bool {
		return c.Load().Get("http") != nil
	}, time.Second, time.Millisecond)
	require.Equal(t, "a.local:1", c.Load().Get("http").Host())

	src.change(t, "https=b.local:2", nil)
	require.Eventually(t, func() bool {
		return c.Load().Get("https") != nil
	}, time.Second, time.Millisecond)
	require.Nil(t, c.Load().Get("http"))
}

func TestWatcherKeepsSnapshotOnFetchError(t *testing.T) {
	src := newFakeSource("http=a.local:1")
	c := NewCache(ParsePlatformValues("http=a.local:1"))
	w := NewWatcher(src, c, 0)
	w.Start()
	defer w.Stop()
	require.Eventually(t, func() bool {
		return c.Generation() == 1
	}, time.Second, time.Millisecond)

	src.change(t, "", &PlatformFetchErr{
		Platform: "fake",
		Err:      fmt.Errorf("settings unavailable"),
	})
	require.Eventually(t, func() bool {
		return src.fetchCount() == 2
	}, time.Second, time.Millisecond)
	require.Equal(t, "a.local:1", c.Load().Get("http").Host())

	src.change(t, "https=b.local:2", nil)
	require.Eventually(t, func() bool {
		return c.Generation() == 2
	}, time.Second, time.Millisecond)
	require.Equal(t, 3, src.fetchCount())
	require.Equal(t, []string{"https"}, c.Load().Keys())
}

func TestWatcherRetriesFetch(t *testing.T) {
	src := newFakeSource("")
	c := NewCache(nil)
	w := NewWatcher(src, c, 2)
	w.Start()
	defer w.Stop()
	require.Eventually(t, func() bool {
		return c.Generation() == 1
	}, time.Second, time.Millisecond)

	src.change(t, "", fmt.Errorf("busy"))
	require.Eventually(t, func() bool {
		return src.fetchCount() == 4
	}, 10*time.Second, 10*time.Millisecond)
	require.Equal(t, uint64(1), c.Generation())
}

func TestWatcherReadsOnStart(t *testing.T) {
	src := newFakeSource("http=a.local:1")
	c := NewCache(ParsePlatformValues("http=a.local:1"))
	w := NewWatcher(src, c, 0)
	// changed after the first read, before anyone subscribed
	src.raw = "http=b.local:2"
	w.Start()
	defer w.Stop()
	require.Eventually(t, func() bool {
		s := c.Load().Get("http")
		return s != nil && s.Host() == "b.local:2"
	}, time.Second, time.Millisecond)
}

func TestWatcherStartOnce(t *testing.T) {
	src := newFakeSource("")
	w := NewWatcher(src, NewCache(nil), 0)
	for i := 0; i != 5; i++ {
		w.Start()
	}
	<-src.subscribed
	w.Stop()
	w.Stop()
	require.Equal(t, 1, src.subscribes)
}

func TestWatcherSubscribeError(t *testing.T) {
	src := newFakeSource("")
	src.subscribeErr = fmt.Errorf("no notifications")
	w := NewWatcher(src, NewCache(nil), 0)
	w.Start()
	w.Stop()
	require.Equal(t, 1, src.subscribes)
}

func TestWatcherStopBeforeStart(t *testing.T) {
	src := newFakeSource("")
	w := NewWatcher(src, NewCache(nil), 0)
	w.Stop()
	w.Start()
	w.Stop()
	require.Zero(t, src.subscribes)
}

func TestWatcherStopRacingStart(t *testing.T) {
	for i := 0; i != 100; i++ {
		src := newFakeSource("")
		w := NewWatcher(src, NewCache(nil), 0)
		go w.Start()
		w.Stop()
		// Stop returned: the goroutine, if any, is gone
		select {
		case <-w.done:
		default:
			t.Fatal("Stop returned before the watcher ended")
		}
	}
}
