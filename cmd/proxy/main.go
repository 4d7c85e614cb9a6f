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

package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"net"
	h "net/http"
	"os"
	"time"

	alg "github.com/lamg/algorithms"
	"github.com/lamg/sysproxy"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	fh "github.com/valyala/fasthttp"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

type config struct {
	Addr         string        `yaml:"addr"`
	Range        []string      `yaml:"range"`
	Iface        string        `yaml:"iface"`
	PlatformFile string        `yaml:"platformFile"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	FastHTTP     bool          `yaml:"fasthttp"`
}

func main() {
	cfg := &config{
		Addr:        ":8080",
		Range:       []string{"127.0.0.1/32"},
		DialTimeout: 10 * time.Second,
	}
	var cfgFile string
	flags := pflag.CommandLine
	flags.StringVarP(&cfgFile, "config", "c", "", "YAML configuration file")
	flags.StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "Server address")
	flags.StringSliceVarP(&cfg.Range, "range", "r", cfg.Range,
		"CIDR ranges allowed to use the proxy")
	flags.StringVarP(&cfg.Iface, "iface", "i", "",
		"Network interface for outgoing connections")
	flags.StringVarP(&cfg.PlatformFile, "platform-file", "p", "",
		"File holding the system proxy setting, instead of the OS one")
	flags.DurationVarP(&cfg.DialTimeout, "dial-timeout", "t",
		cfg.DialTimeout, "Dial timeout")
	flags.BoolVarP(&cfg.FastHTTP, "fasthttp", "f", false,
		"Use github.com/valyala/fasthttp")
	klog.InitFlags(nil)
	flags.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()

	e := loadConfig(cfgFile, cfg, flags)
	var rg *rangeIP
	if e == nil {
		rg, e = newRangeIP(cfg.Range)
	}
	if e == nil {
		e = serve(cfg, rg)
	}
	if e != nil {
		klog.Fatal(e)
	}
}

// loadConfig fills cfg from path, keeping the values of the
// flags set on the command line
func loadConfig(path string, cfg *config,
	flags *pflag.FlagSet) (e error) {
	if path == "" {
		return
	}
	var bs []byte
	bs, e = os.ReadFile(path)
	if e != nil {
		e = errors.Wrap(e, "reading configuration")
		return
	}
	fromFile := *cfg
	e = yaml.Unmarshal(bs, &fromFile)
	if e != nil {
		e = errors.Wrapf(e, "parsing %s", path)
		return
	}
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "addr":
			fromFile.Addr = cfg.Addr
		case "range":
			fromFile.Range = cfg.Range
		case "iface":
			fromFile.Iface = cfg.Iface
		case "platform-file":
			fromFile.PlatformFile = cfg.PlatformFile
		case "dial-timeout":
			fromFile.DialTimeout = cfg.DialTimeout
		case "fasthttp":
			fromFile.FastHTTP = cfg.FastHTTP
		}
	})
	*cfg = fromFile
	return
}

func serve(cfg *config, rg *rangeIP) (e error) {
	var src sysproxy.Source = sysproxy.DefaultSource()
	if cfg.PlatformFile != "" {
		src = &sysproxy.FileSource{Path: cfg.PlatformFile}
	}
	r := sysproxy.New(src, os.LookupEnv)
	defer r.Close()
	direct := &sysproxy.IfaceDialer{
		Interface: cfg.Iface,
		Timeout:   cfg.DialTimeout,
	}
	klog.Infof("Listening on %s", cfg.Addr)
	if cfg.FastHTTP {
		hn := sysproxy.NewFastProxy(r, direct, cfg.DialTimeout,
			90*time.Second)
		e = fh.ListenAndServe(cfg.Addr, func(ctx *fh.RequestCtx) {
			if rg.allowed(ctx.RemoteAddr().String()) {
				hn(ctx)
			} else {
				ctx.Error("Forbidden", h.StatusForbidden)
			}
		})
	} else {
		maxIdleConns := 100
		idleConnTimeout := 90 * time.Second
		tlsHandshakeTimeout := 10 * time.Second
		expectContinueTimeout := time.Second
		np := sysproxy.NewProxy(r, direct, maxIdleConns,
			idleConnTimeout, tlsHandshakeTimeout,
			expectContinueTimeout)
		server := &h.Server{
			Addr:         cfg.Addr,
			Handler:      rg.wrap(np),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			// Disable HTTP/2.
			TLSNextProto: make(map[string]func(*h.Server,
				*tls.Conn, h.Handler)),
		}
		e = server.ListenAndServe()
	}
	return
}

type rangeIP struct {
	iprgs []*net.IPNet
}

func newRangeIP(cidrs []string) (n *rangeIP, e error) {
	iprgs := make([]*net.IPNet, len(cidrs))
	ib := func(i int) (b bool) {
		_, iprgs[i], e = net.ParseCIDR(cidrs[i])
		b = e != nil
		return
	}
	alg.BLnSrch(ib, len(cidrs))
	if e == nil {
		n = &rangeIP{iprgs: iprgs}
	}
	return
}

func (n *rangeIP) allowed(rAddr string) (ok bool) {
	host, _, e := net.SplitHostPort(rAddr)
	if e == nil {
		if ni := net.ParseIP(host); ni != nil {
			ib := func(i int) (b bool) {
				b = n.iprgs[i].Contains(ni)
				return
			}
			ok, _ = alg.BLnSrch(ib, len(n.iprgs))
		}
	}
	return
}

func (n *rangeIP) wrap(hn h.Handler) (w h.Handler) {
	w = h.HandlerFunc(func(rw h.ResponseWriter, r *h.Request) {
		if n.allowed(r.RemoteAddr) {
			hn.ServeHTTP(rw, r)
		} else {
			h.Error(rw, fmt.Sprintf("Host %s out of range", r.RemoteAddr),
				h.StatusForbidden)
		}
	})
	return
}
