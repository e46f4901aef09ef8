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

package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ShortFormatLen is the exact length of FormatShort output
const ShortFormatLen = 9

// Epoch is the wall-clock time reported before the first sync
var Epoch = time.Unix(0, 0).UTC()

// Clock is a software wall clock driven by a monotonic source.
// Now() always equals sysStart plus the time elapsed since the clock was created.
type Clock struct {
	source clockwork.Clock
	zero   time.Time // monotonic zero

	mux      sync.Mutex
	sysStart time.Time
	synced   bool
	syncedAt time.Duration // elapsed monotonic time at the last SetTime
}

// New creates a Clock whose monotonic zero is the current reading of source
func New(source clockwork.Clock) *Clock {
	return &Clock{
		source:   source,
		zero:     source.Now(),
		sysStart: Epoch,
	}
}

func (c *Clock) elapsed() time.Duration {
	return c.source.Since(c.zero)
}

// SetTime moves the anchor so that Now() returns now at this instant
func (c *Clock) SetTime(now time.Time) {
	c.mux.Lock()
	e := c.elapsed()
	c.sysStart = now.UTC().Add(-e)
	c.synced = true
	c.syncedAt = e
	c.mux.Unlock()
}

// Now returns the current wall-clock estimate
func (c *Clock) Now() time.Time {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.sysStart.Add(c.elapsed())
}

// LastSync returns the wall-clock time of the most recent SetTime.
// ok is false if the clock was never set.
func (c *Clock) LastSync() (t time.Time, ok bool) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if !c.synced {
		return time.Time{}, false
	}
	return c.sysStart.Add(c.syncedAt), true
}

// FormatShort renders Now() for small displays, see Format
func (c *Clock) FormatShort() string {
	return Format(c.Now())
}

// Format renders t as "Www hh:mm" in exactly ShortFormatLen bytes.
// The colon is replaced by a space on odd seconds so a display refreshed
// every second blinks it.
func Format(t time.Time) string {
	var b [ShortFormatLen]byte
	copy(b[0:3], t.Weekday().String())
	b[3] = ' '
	putTwoDigits(b[4:6], t.Hour())
	if t.Second()%2 == 0 {
		b[6] = ':'
	} else {
		b[6] = ' '
	}
	putTwoDigits(b[7:9], t.Minute())
	return string(b[:])
}

func putTwoDigits(b []byte, v int) {
	b[0] = byte('0' + v/10)
	b[1] = byte('0' + v%10)
}
