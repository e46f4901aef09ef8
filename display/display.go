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
Package display periodically renders the software clock on a small output:
the log, a terminal or a character display on a serial port.
*/
package display

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// RefreshInterval is how often the display is redrawn
const RefreshInterval = time.Second

// Source renders the current time
type Source interface {
	FormatShort() string
}

// Sink shows rendered time somewhere
type Sink interface {
	Show(text string) error
}

// Display redraws Sink with time from Source every RefreshInterval
type Display struct {
	source Source
	sink   Sink
	timers clockwork.Clock
}

// New returns a Display. timers drives the refresh.
func New(source Source, sink Sink, timers clockwork.Clock) *Display {
	return &Display{source: source, sink: sink, timers: timers}
}

// Run redraws the display until ctx is cancelled
func (d *Display) Run(ctx context.Context) error {
	ticker := d.timers.NewTicker(RefreshInterval)
	defer ticker.Stop()
	d.refresh()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			d.refresh()
		}
	}
}

func (d *Display) refresh() {
	if err := d.sink.Show(d.source.FormatShort()); err != nil {
		log.Warningf("failed to refresh display: %v", err)
	}
}
