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
	"fmt"
	"net/netip"
	"time"

	"github.com/miekg/dns"
	log "github.com/sirupsen/logrus"
)

const defaultDNSTimeout = 2 * time.Second

// lookupA sends a single A query for host to server
func lookupA(ctx context.Context, server, host string, timeout time.Duration) ([]netip.Addr, error) {
	if timeout <= 0 {
		timeout = defaultDNSTimeout
	}
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	m.RecursionDesired = true

	c := &dns.Client{Net: "udp", Timeout: timeout}
	r, rtt, err := c.ExchangeContext(ctx, m, server)
	if err != nil {
		return nil, fmt.Errorf("querying %s for %q: %w", server, host, err)
	}
	log.Debugf("dns: %s answered %d records for %q in %v", server, len(r.Answer), host, rtt)
	if r.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("querying %s for %q: %s", server, host, dns.RcodeToString[r.Rcode])
	}

	var addrs []netip.Addr
	for _, rr := range r.Answer {
		a, ok := rr.(*dns.A)
		if !ok {
			// CNAME chain entries
			continue
		}
		ip, ok := netip.AddrFromSlice(a.A.To4())
		if !ok {
			continue
		}
		addrs = append(addrs, ip)
	}
	return addrs, nil
}
