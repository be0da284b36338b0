package sampler

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Dicklesworthstone/pulse/internal/store"
	"github.com/shirou/gopsutil/v3/net"
)

// Keys holding the network baseline in the persisted store.
const (
	KeyPreviousBytesIn  = "network.previous_bytes_in"
	KeyPreviousBytesOut = "network.previous_bytes_out"
	KeyLastSampleAt     = "network.last_sample_at"
)

// DefaultInterfacePrefixes covers wired and wireless adapters plus loopback.
// Virtual and tunnel interfaces are left out so their traffic is not counted
// twice.
var DefaultInterfacePrefixes = []string{"en", "eth", "wl", "lo"}

// InterfaceSource yields cumulative per-interface byte counters.
type InterfaceSource interface {
	Counters() ([]net.IOCountersStat, error)
}

// Clock is injected wherever wall time matters.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

type Throughput struct {
	UpKBps   float64
	DownKBps float64
}

type baseline struct {
	in, out uint64
	at      time.Time
}

// NetworkProbe turns two counter readings into KB/s. It owns the baseline
// kept in the store: each Read loads it once and replaces it once, so the
// host may call at any cadence, and from short-lived processes.
type NetworkProbe struct {
	store    store.Store
	src      InterfaceSource
	clock    Clock
	prefixes []string

	mu sync.Mutex
}

func NewNetworkProbe(st store.Store, src InterfaceSource, clock Clock, prefixes []string) *NetworkProbe {
	if clock == nil {
		clock = SystemClock
	}
	if len(prefixes) == 0 {
		prefixes = DefaultInterfacePrefixes
	}
	return &NetworkProbe{store: st, src: src, clock: clock, prefixes: prefixes}
}

func (p *NetworkProbe) Read() Reading[Throughput] {
	p.mu.Lock()
	defer p.mu.Unlock()

	counters, err := p.src.Counters()
	if err != nil {
		// no baseline from a failed read
		return fallback(Throughput{}, unavailable("interface counters", err))
	}
	var totalIn, totalOut uint64
	for _, c := range counters {
		if p.counted(c.Name) {
			totalIn += c.BytesRecv
			totalOut += c.BytesSent
		}
	}

	prev, havePrev, loadErr := p.load()
	now := p.clock.Now()

	var tp Throughput
	if havePrev {
		elapsed := now.Sub(prev.at).Seconds()
		if elapsed > 0 && prev.in > 0 {
			tp.DownKBps = rate(totalIn, prev.in, elapsed)
			tp.UpKBps = rate(totalOut, prev.out, elapsed)
		}
	}

	if err := p.save(baseline{in: totalIn, out: totalOut, at: now}); err != nil {
		return fallback(tp, unavailable("persist baseline", err))
	}
	if loadErr != nil {
		return fallback(tp, unavailable("load baseline", loadErr))
	}
	return ok(tp)
}

// Reset forgets the baseline; the next Read starts cold.
func (p *NetworkProbe) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(
		p.store.Remove(KeyPreviousBytesIn),
		p.store.Remove(KeyPreviousBytesOut),
		p.store.Remove(KeyLastSampleAt),
	)
}

func (p *NetworkProbe) counted(name string) bool {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// rate is floored at zero: counters that went backwards mean a reset.
func rate(cur, prev uint64, elapsed float64) float64 {
	if cur <= prev {
		return 0
	}
	return float64(cur-prev) / elapsed / 1024
}

// load returns havePrev=false for a missing or unreadable baseline.
func (p *NetworkProbe) load() (baseline, bool, error) {
	in, okIn, err := p.store.Get(KeyPreviousBytesIn)
	if err != nil || !okIn {
		return baseline{}, false, err
	}
	out, okOut, err := p.store.Get(KeyPreviousBytesOut)
	if err != nil || !okOut {
		return baseline{}, false, err
	}
	at, okAt, err := p.store.Get(KeyLastSampleAt)
	if err != nil || !okAt {
		return baseline{}, false, err
	}

	var b baseline
	var perr error
	if b.in, perr = strconv.ParseUint(in, 10, 64); perr != nil {
		return baseline{}, false, nil
	}
	if b.out, perr = strconv.ParseUint(out, 10, 64); perr != nil {
		return baseline{}, false, nil
	}
	if b.at, perr = time.Parse(time.RFC3339Nano, at); perr != nil {
		return baseline{}, false, nil
	}
	return b, true, nil
}

// save replaces the whole baseline in one write, so a failure leaves the
// previous baseline intact.
func (p *NetworkProbe) save(b baseline) error {
	return p.store.SetMany(map[string]string{
		KeyPreviousBytesIn:  strconv.FormatUint(b.in, 10),
		KeyPreviousBytesOut: strconv.FormatUint(b.out, 10),
		KeyLastSampleAt:     b.at.Format(time.RFC3339Nano),
	})
}
