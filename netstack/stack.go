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

/*
Package netstack is the network capability the time sync consumes:
IPv4 name resolution and UDP datagram exchange.

How the link came up (wireless association, DHCP) is not its concern.
*/
package netstack

import (
	"context"
	"fmt"
	"net/netip"
)

//go:generate mockgen -source=stack.go -destination=../daemon/stack_mock_test.go -package=daemon

// Endpoint is the stack's native remote/local address
type Endpoint struct {
	Addr netip.Addr
	Port uint16
}

// String returns "addr:port"
func (e Endpoint) String() string {
	return netip.AddrPortFrom(e.Addr, e.Port).String()
}

// EndpointFromAddrPort converts netip.AddrPort to Endpoint
func EndpointFromAddrPort(ap netip.AddrPort) Endpoint {
	return Endpoint{Addr: ap.Addr().Unmap(), Port: ap.Port()}
}

// AddrPort converts Endpoint to netip.AddrPort
func (e Endpoint) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(e.Addr, e.Port)
}

// UDPConn is a bound UDP socket
type UDPConn interface {
	// SendTo sends one datagram to ep
	SendTo(ctx context.Context, b []byte, ep Endpoint) error
	// RecvFrom waits for one datagram
	RecvFrom(ctx context.Context, b []byte) (int, Endpoint, error)
	// LocalEndpoint returns the address the socket is bound to
	LocalEndpoint() Endpoint
	Close() error
}

// Stack is the network stack interface
type Stack interface {
	// LookupIPv4 resolves host to its A records
	LookupIPv4(ctx context.Context, host string) ([]netip.Addr, error)
	// ListenUDP binds a UDP socket on port, 0 picks an ephemeral one
	ListenUDP(ctx context.Context, port uint16) (UDPConn, error)
}

// ErrNotIPv4 is returned when an endpoint is not an IPv4 one
var ErrNotIPv4 = fmt.Errorf("not an IPv4 endpoint")
