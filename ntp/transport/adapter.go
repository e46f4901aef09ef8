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
Package transport lets the SNTP client run over a netstack UDP socket.
It translates between sntp.SocketAddr and the stack's own endpoint type.
*/
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/nortc/softclock/netstack"
	"github.com/nortc/softclock/ntp/sntp"
)

// Transport errors
var (
	ErrSendFailed               = errors.New("send failed")
	ErrReceiveFailed            = errors.New("receive failed")
	ErrUnsupportedAddressFamily = errors.New("unsupported address family")
)

// Adapter implements sntp.Socket on top of a netstack.UDPConn
type Adapter struct {
	conn netstack.UDPConn
}

// NewAdapter wraps conn. The caller keeps ownership of conn.
func NewAdapter(conn netstack.UDPConn) *Adapter {
	return &Adapter{conn: conn}
}

// SendTo sends buf to addr as one datagram
func (a *Adapter) SendTo(ctx context.Context, buf []byte, addr sntp.SocketAddr) (int, error) {
	ep, err := ToEndpoint(addr)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if err := a.conn.SendTo(ctx, buf, ep); err != nil {
		return 0, fmt.Errorf("%w: to %s: %w", ErrSendFailed, ep, err)
	}
	return len(buf), nil
}

// ReceiveFrom waits for one datagram
func (a *Adapter) ReceiveFrom(ctx context.Context, buf []byte) (int, sntp.SocketAddr, error) {
	n, ep, err := a.conn.RecvFrom(ctx, buf)
	if err != nil {
		return 0, sntp.SocketAddr{}, fmt.Errorf("%w: %w", ErrReceiveFailed, err)
	}
	addr, err := FromEndpoint(ep)
	if err != nil {
		return 0, sntp.SocketAddr{}, err
	}
	return n, addr, nil
}

// ToEndpoint converts a generic IPv4 address into a stack endpoint
func ToEndpoint(addr sntp.SocketAddr) (netstack.Endpoint, error) {
	if addr.Family != sntp.FamilyIPv4 {
		return netstack.Endpoint{}, fmt.Errorf("%w: %s", ErrUnsupportedAddressFamily, addr.Family)
	}
	return netstack.Endpoint{Addr: netip.AddrFrom4(addr.Octets4()), Port: addr.Port}, nil
}

// FromEndpoint converts a stack endpoint into a generic address
func FromEndpoint(ep netstack.Endpoint) (sntp.SocketAddr, error) {
	ip := ep.Addr.Unmap()
	if !ip.Is4() {
		return sntp.SocketAddr{}, fmt.Errorf("%w: %s", ErrUnsupportedAddressFamily, ep)
	}
	return sntp.SocketAddrV4(ip.As4(), ep.Port), nil
}
