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
Package responder implements a minimal SNTP server answering from a software clock.
*/
package responder

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/nortc/softclock/netstack"
	ntp "github.com/nortc/softclock/ntp/protocol"
	"github.com/nortc/softclock/stats"
	log "github.com/sirupsen/logrus"
)

// stratum we announce while the clock has never been synchronized
const unsynchronizedStratum = 16

// Clock is the time source answers are taken from
type Clock interface {
	Now() time.Time
	LastSync() (time.Time, bool)
}

// Config is a responder config structure
type Config struct {
	Port        uint16
	RefID       string
	Stratum     int
	ExtraOffset time.Duration
}

// Validate checks if config is valid
func (c *Config) Validate() error {
	if c.Stratum < 1 || c.Stratum > 15 {
		return fmt.Errorf("bad config: stratum must be in range [1, 15], got %d", c.Stratum)
	}
	if len(c.RefID) > 4 {
		return fmt.Errorf("bad config: reference id must be at most 4 characters, got %q", c.RefID)
	}
	return nil
}

// Server answers client requests on a single socket
type Server struct {
	Config Config
	Clock  Clock
	Stats  stats.Counters
}

// Serve handles requests on conn until ctx is cancelled. conn is not closed.
func (s *Server) Serve(ctx context.Context, conn netstack.UDPConn) error {
	log.Infof("Serving time on %s", conn.LocalEndpoint())
	buf := make([]byte, ntp.PacketSizeBytes*4)
	request := &ntp.Packet{}
	// Pre-allocating response
	response := &ntp.Packet{}
	s.fillStaticHeaders(response)
	for {
		n, from, err := conn.RecvFrom(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Errorf("Failed to read packet on %s: %v", conn.LocalEndpoint(), err)
			s.Stats.UpdateCounterBy(stats.ResponderReadErrors, 1)
			continue
		}
		received := s.Clock.Now()
		if err := request.UnmarshalBinary(buf[:n]); err != nil {
			log.Debugf("failed to parse ntp packet from %s: %v", from, err)
			s.Stats.UpdateCounterBy(stats.ResponderReadErrors, 1)
			continue
		}
		s.Stats.UpdateCounterBy(stats.ResponderRequests, 1)
		s.serve(ctx, conn, from, received, request, response)
	}
}

// serve checks the request format, gets time from the clock and responds
func (s *Server) serve(ctx context.Context, conn netstack.UDPConn, to netstack.Endpoint, received time.Time, request, response *ntp.Packet) {
	log.Debugf("Received request: %+v", request)
	if !request.ValidSettingsFormat() {
		log.Debugf("Invalid query, discarding: %v", request)
		s.Stats.UpdateCounterBy(stats.ResponderInvalidFormat, 1)
		return
	}

	lastSync, synced := s.Clock.LastSync()
	response.Stratum = uint8(s.Config.Stratum)
	if !synced {
		response.Stratum = unsynchronizedStratum
		s.Stats.UpdateCounterBy(stats.ResponderUnsynced, 1)
	}
	now := s.Clock.Now()
	generateResponse(now.Add(s.Config.ExtraOffset), received.Add(s.Config.ExtraOffset), lastSync, synced, request, response)
	b, err := response.MarshalBinary()
	if err != nil {
		log.Errorf("Failed to convert ntp.%v to bytes: %v", response, err)
		return
	}

	log.Debugf("Writing response: %+v", response)
	if err := conn.SendTo(ctx, b, to); err != nil {
		log.Debugf("Failed to respond to the request: %v", err)
		s.Stats.UpdateCounterBy(stats.ResponderWriteErrors, 1)
		return
	}
	s.Stats.UpdateCounterBy(stats.ResponderResponses, 1)
}

// fillStaticHeaders pre-sets all the headers which will never change
func (s *Server) fillStaticHeaders(response *ntp.Packet) {
	response.Stratum = uint8(s.Config.Stratum)
	// one microsecond, about what a monotonic clock read costs
	response.Precision = -20
	response.RootDelay = 0
	// Root dispersion, big-endian 0.000152
	response.RootDispersion = 10
	response.ReferenceID = binary.BigEndian.Uint32([]byte(fmt.Sprintf("%-4.4s", s.Config.RefID)))
}

// generateResponse generates response NTP packet
func generateResponse(now, received, lastSync time.Time, synced bool, request, response *ntp.Packet) {
	leap := uint8(ntp.LeapNoWarning)
	if !synced {
		leap = ntp.LeapAlarmCondition
	}
	response.Settings = ntp.NewSettings(leap, request.Version(), ntp.ModeServer)

	// Poll
	response.Poll = request.Poll

	// Reference Timestamp
	// RFC: "Local time at which the local clock was last set or corrected."
	response.RefTimeSec, response.RefTimeFrac = 0, 0
	if synced {
		response.RefTimeSec, response.RefTimeFrac = ntp.Time(lastSync)
	}

	// Originate Timestamp
	// RFC: "Local time at which the request departed the client host for the service host."
	response.OrigTimeSec = request.TxTimeSec
	response.OrigTimeFrac = request.TxTimeFrac

	// Receive Timestamp
	// RFC: "Local time at which the request arrived at the service host."
	response.RxTimeSec, response.RxTimeFrac = ntp.Time(received)

	// Transmit Timestamp
	// RFC: "Local time at which the reply departed the service host for the client host."
	response.TxTimeSec, response.TxTimeFrac = ntp.Time(now)
}
