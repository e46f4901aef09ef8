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
Package daemon keeps the software clock in sync with an NTP server:
one SNTP exchange per attempt, an hour between successful syncs and
ten seconds between failed ones.
*/
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nortc/softclock/clock"
	"github.com/nortc/softclock/netstack"
	"github.com/nortc/softclock/ntp/sntp"
	"github.com/nortc/softclock/ntp/transport"
	"github.com/nortc/softclock/stats"
	log "github.com/sirupsen/logrus"
)

// Sync intervals
const (
	SuccessInterval = time.Hour
	FailureInterval = 10 * time.Second
)

// Errors specific to the sync loop
var (
	ErrAddressResolution = errors.New("address resolution failed")
	ErrNoAddress         = fmt.Errorf("%w: no IPv4 address", ErrAddressResolution)
	ErrBind              = errors.New("bind failed")
)

// State of the sync loop
type State int32

// Sync loop states
const (
	StateIdle State = iota
	StateResolving
	StateExchanging
	StateSuccess
	StateFailure
	StateSleeping
)

var stateNames = map[State]string{
	StateIdle:       "IDLE",
	StateResolving:  "RESOLVING",
	StateExchanging: "EXCHANGING",
	StateSuccess:    "SUCCESS",
	StateFailure:    "FAILURE",
	StateSleeping:   "SLEEPING",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Result of a successful sync attempt
type Result struct {
	Server     string
	Endpoint   netstack.Endpoint
	Origin     time.Time // local clock when the request was sent
	SNTP       *sntp.Result
	Applied    time.Time     // value the clock was set to
	Correction time.Duration // Applied minus what the clock said just before
}

// NextInterval returns how long to sleep after an attempt that ended with err
func NextInterval(err error) time.Duration {
	if err != nil {
		return FailureInterval
	}
	return SuccessInterval
}

// Daemon is the sync loop
type Daemon struct {
	cfg    *Config
	stack  netstack.Stack
	clock  *clock.Clock
	timers clockwork.Clock
	stats  stats.Counters

	corrections *correctionStats

	mux    sync.Mutex
	state  State
	onSync func(*Result)
}

// New returns a Daemon setting c with time from the server in cfg.
// timers drives the sleeps between attempts.
func New(cfg *Config, stack netstack.Stack, c *clock.Clock, timers clockwork.Clock, st stats.Counters) *Daemon {
	return &Daemon{
		cfg:         cfg,
		stack:       stack,
		clock:       c,
		timers:      timers,
		stats:       st,
		corrections: newCorrectionStats(),
	}
}

// OnSync registers f to be called after every successful sync
func (d *Daemon) OnSync(f func(*Result)) {
	d.mux.Lock()
	d.onSync = f
	d.mux.Unlock()
}

// State returns the current state of the sync loop
func (d *Daemon) State() State {
	d.mux.Lock()
	defer d.mux.Unlock()
	return d.state
}

func (d *Daemon) setState(s State) {
	d.mux.Lock()
	d.state = s
	d.mux.Unlock()
}

// Run syncs the clock until ctx is cancelled
func (d *Daemon) Run(ctx context.Context) error {
	log.Infof("Syncing with %s:%d", d.cfg.Server, d.cfg.Port)
	for {
		d.setState(StateIdle)
		res, err := d.Attempt(ctx)
		if ctx.Err() != nil {
			return nil
		}
		d.record(res, err)
		interval := NextInterval(err)
		if err != nil {
			log.Errorf("Sync with %s failed: %v. Retrying in %v", d.cfg.Server, err, interval)
		} else {
			log.Debugf("Next sync in %v", interval)
		}

		d.setState(StateSleeping)
		select {
		case <-ctx.Done():
			return nil
		case <-d.timers.After(interval):
		}
	}
}

// Attempt performs a single sync: resolve, exchange, set the clock.
// The clock is only touched when the whole exchange succeeded.
func (d *Daemon) Attempt(ctx context.Context) (*Result, error) {
	d.setState(StateResolving)
	addrs, err := d.stack.LookupIPv4(ctx, d.cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAddressResolution, d.cfg.Server, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoAddress, d.cfg.Server)
	}
	ep := netstack.Endpoint{Addr: addrs[0], Port: d.cfg.Port}
	dest, err := transport.FromEndpoint(ep)
	if err != nil {
		return nil, err
	}
	log.Debugf("Resolved %s to %s", d.cfg.Server, ep)

	d.setState(StateExchanging)
	conn, err := d.stack.ListenUDP(ctx, d.cfg.LocalPort)
	if err != nil {
		return nil, fmt.Errorf("%w: port %d: %w", ErrBind, d.cfg.LocalPort, err)
	}
	defer conn.Close()

	timeout := d.cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	exchangeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	gen := &clockTimestamps{clock: d.clock}
	res, err := sntp.GetTime(exchangeCtx, dest, transport.NewAdapter(conn), gen)
	if err != nil {
		return nil, err
	}
	applied, err := res.Time()
	if err != nil {
		return nil, err
	}
	prior := d.clock.Now()
	d.clock.SetTime(applied)
	return &Result{
		Server:     d.cfg.Server,
		Endpoint:   ep,
		Origin:     gen.origin,
		SNTP:       res,
		Applied:    applied,
		Correction: applied.Sub(prior),
	}, nil
}

func (d *Daemon) record(res *Result, err error) {
	d.stats.UpdateCounterBy(stats.SyncAttempts, 1)
	if err != nil {
		d.setState(StateFailure)
		d.stats.UpdateCounterBy(stats.SyncFailures, 1)
		d.stats.UpdateCounterBy(errorCounter(err), 1)
		return
	}
	d.setState(StateSuccess)
	log.Infof("Synced with %s (%s): time %s, correction %v, round trip %v, stratum %d",
		res.Server, res.Endpoint, res.Applied.Format(time.RFC3339Nano), res.Correction, res.SNTP.RoundTrip, res.SNTP.Stratum)

	d.corrections.add(res.Correction)
	d.stats.UpdateCounterBy(stats.SyncSuccesses, 1)
	d.stats.SetCounter(stats.SyncSynchronized, 1)
	d.stats.SetCounter(stats.SyncLastSuccess, res.Applied.Unix())
	d.stats.SetCounter(stats.SyncLastRoundTrip, res.SNTP.RoundTrip.Nanoseconds())
	d.stats.SetCounter(stats.SyncLastCorrection, res.Correction.Nanoseconds())
	d.stats.SetCounter(stats.SyncStratum, int64(res.SNTP.Stratum))
	// the very first correction is the jump from 1970, keep it out of the aggregates
	if mean, stddev, ok := d.corrections.summary(); ok {
		d.stats.SetCounter(stats.SyncCorrectionMean, int64(mean))
		d.stats.SetCounter(stats.SyncCorrectionStd, int64(stddev))
	}

	d.mux.Lock()
	f := d.onSync
	d.mux.Unlock()
	if f != nil {
		f(res)
	}
}

// errorCounter maps an attempt error to the counter of its class
func errorCounter(err error) string {
	switch {
	case errors.Is(err, ErrAddressResolution):
		return stats.SyncResolveErrors
	case errors.Is(err, ErrBind),
		errors.Is(err, transport.ErrSendFailed),
		errors.Is(err, transport.ErrReceiveFailed),
		errors.Is(err, transport.ErrUnsupportedAddressFamily):
		return stats.SyncTransportErrors
	case errors.Is(err, sntp.ErrMalformedResponse),
		errors.Is(err, sntp.ErrTimestampOutOfRange):
		return stats.SyncProtocolErrors
	}
	return stats.SyncOtherErrors
}

// clockTimestamps feeds request timestamps from the software clock.
// Every Init re-reads the clock so the receive timestamp is fresh.
type clockTimestamps struct {
	clock  *clock.Clock
	now    time.Time
	origin time.Time
}

func (g *clockTimestamps) Init() {
	g.now = g.clock.Now()
	if g.origin.IsZero() {
		g.origin = g.now
	}
}

func (g *clockTimestamps) TimestampSec() uint64 {
	return uint64(g.now.Unix())
}

func (g *clockTimestamps) TimestampSubsecMicros() uint32 {
	return uint32(g.now.Nanosecond() / 1000)
}
