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
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// FileSource keeps the OS proxy setting in a file, in the
// grammar read by ParsePlatformValues. A missing file means no
// proxy. Changes are reported by watching the file's directory,
// so editors replacing the file by rename are noticed too.
type FileSource struct {
	Path string
}

func (f *FileSource) Fetch() (raw string, e error) {
	bs, re := os.ReadFile(f.Path)
	if re == nil {
		raw = strings.TrimSpace(string(bs))
	} else if !os.IsNotExist(re) {
		e = &PlatformFetchErr{Platform: "file", Err: re}
	}
	return
}

func (f *FileSource) Subscribe(ctx context.Context,
	notify chan<- struct{}) (e error) {
	var w *fsnotify.Watcher
	w, e = fsnotify.NewWatcher()
	if e == nil {
		e = w.Add(filepath.Dir(f.Path))
		if e != nil {
			w.Close()
		}
	}
	if e != nil {
		e = errors.Wrapf(e, "watching %s", f.Path)
		return
	}
	name := filepath.Clean(f.Path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == name {
					signal(notify)
				}
			case we, ok := <-w.Errors:
				if !ok {
					return
				}
				klog.Errorf("Watching %s: %v", f.Path, we)
			}
		}
	}()
	return
}
