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
	"context"
	"errors"
	"testing"
	"time"

	ntp "github.com/nortc/softclock/ntp/protocol"
	"github.com/stretchr/testify/require"
)

var server = SocketAddrV4([4]byte{192, 0, 2, 1}, Port)

// fakeSocket answers every request with whatever respond builds from it
type fakeSocket struct {
	sent    []byte
	dest    SocketAddr
	from    SocketAddr
	respond func(req *ntp.Packet) []byte
	sendErr error
	recvErr error
}

func (s *fakeSocket) SendTo(_ context.Context, buf []byte, addr SocketAddr) (int, error) {
	if s.sendErr != nil {
		return 0, s.sendErr
	}
	s.sent = append([]byte(nil), buf...)
	s.dest = addr
	return len(buf), nil
}

func (s *fakeSocket) ReceiveFrom(_ context.Context, buf []byte) (int, SocketAddr, error) {
	if s.recvErr != nil {
		return 0, SocketAddr{}, s.recvErr
	}
	req := &ntp.Packet{}
	if err := req.UnmarshalBinary(s.sent); err != nil {
		return 0, SocketAddr{}, err
	}
	n := copy(buf, s.respond(req))
	return n, s.from, nil
}

// steppingGenerator returns fixed times, advancing by step on every Init
type steppingGenerator struct {
	t    time.Time
	step time.Duration
	init int
}

func (g *steppingGenerator) Init() {
	if g.init > 0 {
		g.t = g.t.Add(g.step)
	}
	g.init++
}

func (g *steppingGenerator) TimestampSec() uint64 {
	return uint64(g.t.Unix())
}

func (g *steppingGenerator) TimestampSubsecMicros() uint32 {
	return uint32(g.t.Nanosecond() / 1000)
}

var serverTime = time.Date(2024, time.March, 4, 9, 5, 30, 250000000, time.UTC)

func goodResponse(req *ntp.Packet) *ntp.Packet {
	sec, frac := ntp.Time(serverTime)
	return &ntp.Packet{
		Settings:     ntp.NewSettings(ntp.LeapNoWarning, Version, ntp.ModeServer),
		Stratum:      2,
		ReferenceID:  0xc0000201,
		OrigTimeSec:  req.TxTimeSec,
		OrigTimeFrac: req.TxTimeFrac,
		RxTimeSec:    sec,
		RxTimeFrac:   frac,
		TxTimeSec:    sec,
		TxTimeFrac:   frac,
	}
}

func respondWith(mutate func(p *ntp.Packet)) func(req *ntp.Packet) []byte {
	return func(req *ntp.Packet) []byte {
		p := goodResponse(req)
		if mutate != nil {
			mutate(p)
		}
		b, _ := p.MarshalBinary()
		return b
	}
}

func TestGetTime(t *testing.T) {
	sock := &fakeSocket{from: server, respond: respondWith(nil)}
	gen := &steppingGenerator{t: time.Unix(0, 0), step: 20 * time.Millisecond}

	res, err := GetTime(context.Background(), server, sock, gen)
	require.NoError(t, err)
	require.Equal(t, server, sock.dest)

	// request is a plain client packet
	require.Len(t, sock.sent, ntp.PacketSizeBytes)
	require.Equal(t, byte(0x23), sock.sent[0])
	req := &ntp.Packet{}
	require.NoError(t, req.UnmarshalBinary(sock.sent))
	require.Equal(t, uint32(ntp.SecondsToUnix), req.TxTimeSec)
	require.Equal(t, uint32(0), req.TxTimeFrac)

	require.Equal(t, uint64(serverTime.Unix()), res.Seconds)
	require.Equal(t, uint8(2), res.Stratum)
	require.Equal(t, uint32(0xc0000201), res.ReferenceID)
	require.Equal(t, 20*time.Millisecond, res.RoundTrip)

	got, err := res.Time()
	require.NoError(t, err)
	require.WithinDuration(t, serverTime, got, time.Microsecond)
	require.Equal(t, time.UTC, got.Location())

	// local clock is at 1970, server far ahead
	require.Greater(t, res.Offset, 50*365*24*time.Hour)
}

func TestGetTimeSubsecondOrigin(t *testing.T) {
	sock := &fakeSocket{from: server, respond: respondWith(nil)}
	gen := &steppingGenerator{t: time.Unix(1700000000, 123456000)}

	_, err := GetTime(context.Background(), server, sock, gen)
	require.NoError(t, err)
	req := &ntp.Packet{}
	require.NoError(t, req.UnmarshalBinary(sock.sent))
	require.Equal(t, uint32(1700000000+ntp.SecondsToUnix), req.TxTimeSec)
	require.Equal(t, ntp.MicrosecondsToFraction(123456), req.TxTimeFrac)
}

func TestGetTimeBadResponses(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *ntp.Packet)
		want   error
	}{
		{
			name:   "client mode",
			mutate: func(p *ntp.Packet) { p.Settings = ntp.NewSettings(ntp.LeapNoWarning, Version, ntp.ModeClient) },
			want:   ErrIncorrectMode,
		},
		{
			name:   "broadcast mode",
			mutate: func(p *ntp.Packet) { p.Settings = ntp.NewSettings(ntp.LeapNoWarning, Version, ntp.ModeBroadcast) },
			want:   ErrIncorrectMode,
		},
		{
			name:   "version 3",
			mutate: func(p *ntp.Packet) { p.Settings = ntp.NewSettings(ntp.LeapNoWarning, 3, ntp.ModeServer) },
			want:   ErrIncorrectVersion,
		},
		{
			name:   "origin seconds",
			mutate: func(p *ntp.Packet) { p.OrigTimeSec++ },
			want:   ErrIncorrectOriginTimestamp,
		},
		{
			name:   "origin fraction",
			mutate: func(p *ntp.Packet) { p.OrigTimeFrac++ },
			want:   ErrIncorrectOriginTimestamp,
		},
		{
			name: "kiss of death",
			mutate: func(p *ntp.Packet) {
				p.Stratum = 0
				p.ReferenceID = 0x52415445 // RATE
			},
			want: ErrKissOfDeath,
		},
		{
			name:   "unsynchronized",
			mutate: func(p *ntp.Packet) { p.Settings = ntp.NewSettings(ntp.LeapAlarmCondition, Version, ntp.ModeServer) },
			want:   ErrServerUnsynchronized,
		},
		{
			name: "zero transmit",
			mutate: func(p *ntp.Packet) {
				p.TxTimeSec = 0
				p.TxTimeFrac = 0
			},
			want: ErrZeroTransmitTimestamp,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sock := &fakeSocket{from: server, respond: respondWith(tt.mutate)}
			gen := &steppingGenerator{t: time.Unix(0, 0)}
			res, err := GetTime(context.Background(), server, sock, gen)
			require.Nil(t, res)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestGetTimeKissCodeInError(t *testing.T) {
	sock := &fakeSocket{from: server, respond: respondWith(func(p *ntp.Packet) {
		p.Stratum = 0
		p.ReferenceID = 0x44454e59 // DENY
	})}
	_, err := GetTime(context.Background(), server, sock, &steppingGenerator{})
	require.ErrorContains(t, err, "DENY")
}

func TestGetTimeShortResponse(t *testing.T) {
	sock := &fakeSocket{from: server, respond: func(_ *ntp.Packet) []byte {
		return make([]byte, 47)
	}}
	_, err := GetTime(context.Background(), server, sock, &steppingGenerator{})
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGetTimeLongResponse(t *testing.T) {
	// extension fields past 48 bytes are ignored
	sock := &fakeSocket{from: server, respond: func(req *ntp.Packet) []byte {
		b := respondWith(nil)(req)
		return append(b, make([]byte, 20)...)
	}}
	_, err := GetTime(context.Background(), server, sock, &steppingGenerator{})
	require.NoError(t, err)
}

func TestGetTimeAddressMismatch(t *testing.T) {
	tests := []struct {
		name string
		from SocketAddr
	}{
		{name: "other ip", from: SocketAddrV4([4]byte{192, 0, 2, 2}, Port)},
		{name: "other port", from: SocketAddrV4([4]byte{192, 0, 2, 1}, 124)},
		{name: "other family", from: SocketAddr{Family: FamilyIPv6, IP: [16]byte{192, 0, 2, 1}, Port: Port}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sock := &fakeSocket{from: tt.from, respond: respondWith(nil)}
			_, err := GetTime(context.Background(), server, sock, &steppingGenerator{})
			require.ErrorIs(t, err, ErrResponseAddressMismatch)
		})
	}
}

func TestGetTimeTransportErrors(t *testing.T) {
	sendErr := errors.New("send failed")
	sock := &fakeSocket{sendErr: sendErr}
	_, err := GetTime(context.Background(), server, sock, &steppingGenerator{})
	require.ErrorIs(t, err, sendErr)
	require.NotErrorIs(t, err, ErrMalformedResponse)

	recvErr := errors.New("receive failed")
	sock = &fakeSocket{recvErr: recvErr}
	_, err = GetTime(context.Background(), server, sock, &steppingGenerator{})
	require.ErrorIs(t, err, recvErr)
	require.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestGetTimeEraOne(t *testing.T) {
	after := time.Date(2040, time.January, 1, 0, 0, 0, 0, time.UTC)
	sock := &fakeSocket{from: server, respond: func(req *ntp.Packet) []byte {
		p := goodResponse(req)
		p.TxTimeSec, p.TxTimeFrac = ntp.Time(after)
		b, _ := p.MarshalBinary()
		return b
	}}
	res, err := GetTime(context.Background(), server, sock, &steppingGenerator{})
	require.NoError(t, err)
	got, err := res.Time()
	require.NoError(t, err)
	require.Equal(t, after, got)
}

func TestResultTimeOutOfRange(t *testing.T) {
	r := &Result{Seconds: 1 << 62}
	_, err := r.Time()
	require.ErrorIs(t, err, ErrTimestampOutOfRange)

	r = &Result{Seconds: 0, SecondsFraction: 1 << 31}
	got, err := r.Time()
	require.NoError(t, err)
	require.Equal(t, time.Unix(0, 500000000).UTC(), got)
}

func TestFuncGenerator(t *testing.T) {
	now := time.Unix(1700000000, 987654321)
	g := NewFuncGenerator(func() time.Time { return now })
	g.Init()
	require.Equal(t, uint64(1700000000), g.TimestampSec())
	require.Equal(t, uint32(987654), g.TimestampSubsecMicros())

	now = now.Add(time.Second)
	require.Equal(t, uint64(1700000000), g.TimestampSec())
	g.Init()
	require.Equal(t, uint64(1700000001), g.TimestampSec())
}

func TestSocketAddr(t *testing.T) {
	a := SocketAddrV4([4]byte{10, 1, 2, 3}, 1234)
	require.Equal(t, "10.1.2.3:1234", a.String())
	require.Equal(t, [4]byte{10, 1, 2, 3}, a.Octets4())
	require.Equal(t, "IPv4", a.Family.String())

	b := a
	b.IP[10] = 1
	require.True(t, a.Equal(b))
	b.Port = 1235
	require.False(t, a.Equal(b))

	v6 := SocketAddr{Family: FamilyIPv6, IP: [16]byte{0x20, 0x01, 0x0d, 0xb8, 15: 1}, Port: 123}
	require.Equal(t, "[2001:db8::1]:123", v6.String())
	require.Equal(t, "AddressFamily(9)", AddressFamily(9).String())
}
