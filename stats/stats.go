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
Package stats keeps the counters softclock exports for monitoring
and serves them as JSON and Prometheus metrics.
*/
package stats

import (
	"sync"
)

// Counter keys
const (
	SyncAttempts        = "sync.attempts"
	SyncSuccesses       = "sync.successes"
	SyncFailures        = "sync.failures"
	SyncResolveErrors   = "sync.errors.resolve"
	SyncTransportErrors = "sync.errors.transport"
	SyncProtocolErrors  = "sync.errors.protocol"
	SyncOtherErrors     = "sync.errors.other"
	SyncLastSuccess     = "sync.last_success_unix"
	SyncLastRoundTrip   = "sync.last_roundtrip_ns"
	SyncLastCorrection  = "sync.last_correction_ns"
	SyncCorrectionMean  = "sync.correction_mean_ns"
	SyncCorrectionStd   = "sync.correction_stddev_ns"
	SyncStratum         = "sync.stratum"
	SyncSynchronized    = "sync.synchronized"

	ResponderRequests      = "responder.requests"
	ResponderResponses     = "responder.responses"
	ResponderInvalidFormat = "responder.invalidformat"
	ResponderReadErrors    = "responder.errors.read"
	ResponderWriteErrors   = "responder.errors.write"
	ResponderUnsynced      = "responder.unsynchronized"
)

// Counters is what producers of stats need
type Counters interface {
	SetCounter(key string, val int64)
	UpdateCounterBy(key string, count int64)
}

// Stats is a thread safe map of counters
type Stats struct {
	mux      sync.Mutex
	counters map[string]int64
}

// NewStats created new instance of Stats
func NewStats() *Stats {
	return &Stats{
		counters: map[string]int64{},
	}
}

// UpdateCounterBy will increment counter
func (s *Stats) UpdateCounterBy(key string, count int64) {
	s.mux.Lock()
	s.counters[key] += count
	s.mux.Unlock()
}

// SetCounter will set a counter to the provided value.
func (s *Stats) SetCounter(key string, val int64) {
	s.mux.Lock()
	s.counters[key] = val
	s.mux.Unlock()
}

// Get returns a copy of all counters
func (s *Stats) Get() map[string]int64 {
	ret := make(map[string]int64)
	s.mux.Lock()
	for key, val := range s.counters {
		ret[key] = val
	}
	s.mux.Unlock()
	return ret
}

// Reset all the values of counters
func (s *Stats) Reset() {
	s.mux.Lock()
	for k := range s.counters {
		s.counters[k] = 0
	}
	s.mux.Unlock()
}
