/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package netstack

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

// Config tunes OSStack
type Config struct {
	DNSServer  string        // host:port of a DNS server to query directly, system resolver if empty
	DNSTimeout time.Duration // per query timeout when DNSServer is used
	DSCP       int           // DSCP value for outgoing datagrams, must be in range [0, 63]
}

// OSStack is a Stack on top of the host sockets
type OSStack struct {
	cfg Config
}

// NewOSStack returns a new OSStack
func NewOSStack(cfg Config) *OSStack {
	return &OSStack{cfg: cfg}
}

// LookupIPv4 resolves host to IPv4 addresses. IPv4 literals are returned as is.
func (s *OSStack) LookupIPv4(ctx context.Context, host string) ([]netip.Addr, error) {
	if ip, err := netip.ParseAddr(host); err == nil {
		ip = ip.Unmap()
		if !ip.Is4() {
			return nil, fmt.Errorf("%w: %s", ErrNotIPv4, host)
		}
		return []netip.Addr{ip}, nil
	}
	if s.cfg.DNSServer != "" {
		return lookupA(ctx, s.cfg.DNSServer, host, s.cfg.DNSTimeout)
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	res := make([]netip.Addr, 0, len(addrs))
	for _, a := range addrs {
		if a = a.Unmap(); a.Is4() {
			res = append(res, a)
		}
	}
	return res, nil
}

// ListenUDP binds an IPv4 UDP socket on all interfaces
func (s *OSStack) ListenUDP(_ context.Context, port uint16) (UDPConn, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return nil, err
	}
	if s.cfg.DSCP != 0 {
		// DSCP is the upper 6 bits of the TOS byte
		if err := ipv4.NewConn(conn).SetTOS(s.cfg.DSCP << 2); err != nil {
			log.Warningf("failed to set DSCP %d on %s: %v", s.cfg.DSCP, conn.LocalAddr(), err)
		}
	}
	return &osUDPConn{conn: conn}, nil
}

type osUDPConn struct {
	conn *net.UDPConn
}

func (c *osUDPConn) SendTo(ctx context.Context, b []byte, ep Endpoint) error {
	if !ep.Addr.Is4() {
		return fmt.Errorf("%w: %s", ErrNotIPv4, ep)
	}
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	n, err := c.conn.WriteToUDPAddrPort(b, ep.AddrPort())
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(b))
	}
	return nil
}

func (c *osUDPConn) RecvFrom(ctx context.Context, b []byte) (int, Endpoint, error) {
	deadline, hasDeadline := ctx.Deadline()
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return 0, Endpoint{}, err
	}
	// unblock the read on cancellation as well
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()
	n, ap, err := c.conn.ReadFromUDPAddrPort(b)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return 0, Endpoint{}, fmt.Errorf("%w: %w", cerr, err)
		}
		// socket deadline may fire before the context timer does
		if hasDeadline && errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, Endpoint{}, fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		return 0, Endpoint{}, err
	}
	return n, EndpointFromAddrPort(ap), nil
}

func (c *osUDPConn) LocalEndpoint() Endpoint {
	return EndpointFromAddrPort(c.conn.LocalAddr().(*net.UDPAddr).AddrPort())
}

func (c *osUDPConn) Close() error {
	return c.conn.Close()
}
