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
Package protocol implements the 48 byte NTP packet and basic functions to work with it.
It provides quick and transparent translation between 48 bytes and
simply accessible struct.
*/
package protocol

import (
	"time"
)

// NanosecondsToUnix is the difference between NTP and Unix epoch in NS
const NanosecondsToUnix = int64(2208988800000000000)

// SecondsToUnix is the difference between NTP and Unix epoch in seconds
const SecondsToUnix = uint64(2208988800)

// eraSeconds is the length of one NTP era (2^32 seconds)
const eraSeconds = uint64(1) << 32

// Time is converting Unix time to sec and frac NTP format
func Time(t time.Time) (seconds uint32, fractions uint32) {
	nsec := t.UnixNano() + NanosecondsToUnix
	sec := nsec / time.Second.Nanoseconds()
	return uint32(sec), uint32((nsec - sec*time.Second.Nanoseconds()) << 32 / time.Second.Nanoseconds())
}

// UnixSeconds converts NTP seconds into seconds since Unix epoch.
// Values below the Unix epoch are taken from NTP era 1, which starts on 2036-02-07.
func UnixSeconds(seconds uint32) uint64 {
	s := uint64(seconds)
	if s < SecondsToUnix {
		s += eraSeconds
	}
	return s - SecondsToUnix
}

// FractionToNanoseconds converts NTP fraction of a second to nanoseconds
func FractionToNanoseconds(fractions uint32) int64 {
	return (int64(fractions) * time.Second.Nanoseconds()) >> 32
}

// Unix is converting NTP seconds and fractions into Unix time
func Unix(seconds, fractions uint32) time.Time {
	return time.Unix(int64(UnixSeconds(seconds)), FractionToNanoseconds(fractions))
}

// MicrosecondsToFraction converts microseconds into NTP fraction of a second
func MicrosecondsToFraction(usec uint32) uint32 {
	return uint32((uint64(usec) << 32) / 1000000)
}

// ClockOffset uses formula from RFC 5905 to calculate local clock offset
func ClockOffset(clientTransmitTime, serverReceiveTime, serverTransmitTime, clientReceiveTime time.Time) time.Duration {
	return (serverReceiveTime.Sub(clientTransmitTime) + serverTransmitTime.Sub(clientReceiveTime)) / 2
}

// RoundTripDelay uses formula from RFC 5905 to calculate round trip delay
func RoundTripDelay(clientTransmitTime, serverReceiveTime, serverTransmitTime, clientReceiveTime time.Time) time.Duration {
	return clientReceiveTime.Sub(clientTransmitTime) - serverTransmitTime.Sub(serverReceiveTime)
}
