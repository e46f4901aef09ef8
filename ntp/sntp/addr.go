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

package sntp

import (
	"fmt"
	"net"
	"strconv"
)

// AddressFamily of a SocketAddr
type AddressFamily uint8

// Supported address families
const (
	FamilyIPv4 AddressFamily = 4
	FamilyIPv6 AddressFamily = 6
)

func (f AddressFamily) String() string {
	switch f {
	case FamilyIPv4:
		return "IPv4"
	case FamilyIPv6:
		return "IPv6"
	}
	return fmt.Sprintf("AddressFamily(%d)", uint8(f))
}

// SocketAddr is a transport independent socket address.
// For FamilyIPv4 only the first 4 bytes of IP are used.
type SocketAddr struct {
	Family AddressFamily
	IP     [16]byte
	Port   uint16
}

// SocketAddrV4 returns an IPv4 SocketAddr
func SocketAddrV4(octets [4]byte, port uint16) SocketAddr {
	a := SocketAddr{Family: FamilyIPv4, Port: port}
	copy(a.IP[:4], octets[:])
	return a
}

// Octets4 returns the IPv4 octets
func (a SocketAddr) Octets4() [4]byte {
	var o [4]byte
	copy(o[:], a.IP[:4])
	return o
}

// Equal compares two addresses ignoring unused IP bytes
func (a SocketAddr) Equal(b SocketAddr) bool {
	if a.Family != b.Family || a.Port != b.Port {
		return false
	}
	if a.Family == FamilyIPv4 {
		return a.Octets4() == b.Octets4()
	}
	return a.IP == b.IP
}

// String returns "ip:port"
func (a SocketAddr) String() string {
	var ip net.IP
	switch a.Family {
	case FamilyIPv4:
		ip = net.IP(a.IP[:4])
	case FamilyIPv6:
		ip = net.IP(a.IP[:])
	default:
		return fmt.Sprintf("%s:%d", a.Family, a.Port)
	}
	return net.JoinHostPort(ip.String(), strconv.Itoa(int(a.Port)))
}
