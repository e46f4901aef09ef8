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
Package sntp implements a single request/response SNTP exchange (RFC 4330)
over any transport that can send and receive datagrams.
*/
package sntp

import (
	"context"
	"errors"
	"fmt"
	"time"

	ntp "github.com/nortc/softclock/ntp/protocol"
	log "github.com/sirupsen/logrus"
)

// Version is the NTP version we speak
const Version = 4

// Port is the well-known NTP port
const Port = 123

// responses longer than this are truncated, only the first 48 bytes matter
const receiveBufSize = 512

// 9999-12-31T23:59:59Z
const maxUnixSeconds = 253402300799

// Socket is what GetTime needs from a transport
type Socket interface {
	// SendTo sends buf to addr in a single datagram
	SendTo(ctx context.Context, buf []byte, addr SocketAddr) (int, error)
	// ReceiveFrom waits for a single datagram
	ReceiveFrom(ctx context.Context, buf []byte) (int, SocketAddr, error)
}

// TimestampGenerator supplies the local time used for request timestamps.
// Init is called before each timestamp is taken.
type TimestampGenerator interface {
	Init()
	TimestampSec() uint64
	TimestampSubsecMicros() uint32
}

// Errors returned by GetTime on bad responses. All of them wrap ErrMalformedResponse.
var (
	ErrMalformedResponse        = errors.New("malformed NTP response")
	ErrResponseAddressMismatch  = fmt.Errorf("%w: response from unexpected address", ErrMalformedResponse)
	ErrIncorrectMode            = fmt.Errorf("%w: incorrect mode", ErrMalformedResponse)
	ErrIncorrectVersion         = fmt.Errorf("%w: incorrect version", ErrMalformedResponse)
	ErrIncorrectOriginTimestamp = fmt.Errorf("%w: origin timestamp mismatch", ErrMalformedResponse)
	ErrKissOfDeath              = fmt.Errorf("%w: kiss-o'-death", ErrMalformedResponse)
	ErrServerUnsynchronized     = fmt.Errorf("%w: server clock is not synchronized", ErrMalformedResponse)
	ErrZeroTransmitTimestamp    = fmt.Errorf("%w: zero transmit timestamp", ErrMalformedResponse)
)

// ErrTimestampOutOfRange is returned when server time can't be represented as wall-clock time
var ErrTimestampOutOfRange = errors.New("timestamp out of range")

// Result of a successful exchange
type Result struct {
	Seconds         uint64 // server transmit time, seconds since Unix epoch
	SecondsFraction uint32 // server transmit time, NTP fraction of a second
	RoundTrip       time.Duration
	Offset          time.Duration // server minus local, single sample
	Stratum         uint8
	ReferenceID     uint32
}

// Time converts server transmit time into wall-clock time
func (r *Result) Time() (time.Time, error) {
	if r.Seconds > maxUnixSeconds {
		return time.Time{}, fmt.Errorf("%w: %d seconds since epoch", ErrTimestampOutOfRange, r.Seconds)
	}
	return time.Unix(int64(r.Seconds), ntp.FractionToNanoseconds(r.SecondsFraction)).UTC(), nil
}

// GetTime performs one request/response exchange with dest.
// Transport errors are returned as is, everything wrong with the response wraps ErrMalformedResponse.
func GetTime(ctx context.Context, dest SocketAddr, sock Socket, gen TimestampGenerator) (*Result, error) {
	gen.Init()
	clientTransmitTime := generatorTime(gen)
	request := &ntp.Packet{
		Settings:   ntp.NewSettings(ntp.LeapNoWarning, Version, ntp.ModeClient),
		TxTimeSec:  uint32(gen.TimestampSec() + ntp.SecondsToUnix),
		TxTimeFrac: ntp.MicrosecondsToFraction(gen.TimestampSubsecMicros()),
	}
	b, err := request.MarshalBinary()
	if err != nil {
		return nil, err
	}
	log.Debugf("sntp: sending request to %s: %+v", dest, request)
	if _, err := sock.SendTo(ctx, b, dest); err != nil {
		return nil, err
	}

	buf := make([]byte, receiveBufSize)
	n, src, err := sock.ReceiveFrom(ctx, buf)
	if err != nil {
		return nil, err
	}
	gen.Init()
	clientReceiveTime := generatorTime(gen)

	if !src.Equal(dest) {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrResponseAddressMismatch, src, dest)
	}
	response := &ntp.Packet{}
	if err := response.UnmarshalBinary(buf[:n]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	log.Debugf("sntp: received response from %s: %+v", src, response)
	if err := validateResponse(request, response); err != nil {
		return nil, err
	}

	serverReceiveTime := ntp.Unix(response.RxTimeSec, response.RxTimeFrac)
	serverTransmitTime := ntp.Unix(response.TxTimeSec, response.TxTimeFrac)
	return &Result{
		Seconds:         ntp.UnixSeconds(response.TxTimeSec),
		SecondsFraction: response.TxTimeFrac,
		RoundTrip:       ntp.RoundTripDelay(clientTransmitTime, serverReceiveTime, serverTransmitTime, clientReceiveTime),
		Offset:          ntp.ClockOffset(clientTransmitTime, serverReceiveTime, serverTransmitTime, clientReceiveTime),
		Stratum:         response.Stratum,
		ReferenceID:     response.ReferenceID,
	}, nil
}

func validateResponse(request, response *ntp.Packet) error {
	if response.Mode() != ntp.ModeServer {
		return fmt.Errorf("%w: %d", ErrIncorrectMode, response.Mode())
	}
	if response.Version() != request.Version() {
		return fmt.Errorf("%w: %d", ErrIncorrectVersion, response.Version())
	}
	if response.OrigTimeSec != request.TxTimeSec || response.OrigTimeFrac != request.TxTimeFrac {
		return ErrIncorrectOriginTimestamp
	}
	if response.Stratum == 0 {
		return fmt.Errorf("%w: %q", ErrKissOfDeath, response.KissCode())
	}
	if response.Leap() == ntp.LeapAlarmCondition {
		return ErrServerUnsynchronized
	}
	if response.TxTimeSec == 0 && response.TxTimeFrac == 0 {
		return ErrZeroTransmitTimestamp
	}
	return nil
}

func generatorTime(gen TimestampGenerator) time.Time {
	return time.Unix(int64(gen.TimestampSec()), int64(gen.TimestampSubsecMicros())*int64(time.Microsecond))
}

// FuncGenerator is a TimestampGenerator reading time from a function
type FuncGenerator struct {
	Now func() time.Time
	now time.Time
}

// NewFuncGenerator returns a generator taking time from now
func NewFuncGenerator(now func() time.Time) *FuncGenerator {
	return &FuncGenerator{Now: now}
}

// Init takes a fresh reading
func (g *FuncGenerator) Init() {
	g.now = g.Now()
}

// TimestampSec returns seconds since Unix epoch of the last reading
func (g *FuncGenerator) TimestampSec() uint64 {
	return uint64(g.now.Unix())
}

// TimestampSubsecMicros returns microseconds part of the last reading
func (g *FuncGenerator) TimestampSubsecMicros() uint32 {
	return uint32(g.now.Nanosecond() / 1000)
}
