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


package daemon

import (
	"sync"
	"time"

	"github.com/eclesh/welford"
)

// correctionStats aggregates clock corrections applied by successful syncs.
// The first sample is skipped: it is the step from the unsynchronized epoch.
type correctionStats struct {
	mux     sync.Mutex
	skipped bool
	count   int
	s       *welford.Stats
}

func newCorrectionStats() *correctionStats {
	return &correctionStats{s: welford.New()}
}

func (c *correctionStats) add(d time.Duration) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if !c.skipped {
		c.skipped = true
		return
	}
	c.s.Add(float64(d.Nanoseconds()))
	c.count++
}

// summary returns mean and standard deviation in nanoseconds, ok is false until there is data
func (c *correctionStats) summary() (mean, stddev float64, ok bool) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.count == 0 {
		return 0, 0, false
	}
	return c.s.Mean(), c.s.Stddev(), true
}
