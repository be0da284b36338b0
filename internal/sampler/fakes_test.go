package sampler

import (
	"errors"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/net"
)

var errBoom = errors.New("boom")

type fakeCPU struct {
	times []cpu.TimesStat
	err   error
}

func (f fakeCPU) PerCoreTimes() ([]cpu.TimesStat, error) { return f.times, f.err }

type fakeMemory struct {
	c   MemoryCounters
	err error
}

func (f *fakeMemory) MemoryCounters() (MemoryCounters, error) { return f.c, f.err }

type fakeDisk struct {
	total, avail uint64
	err          error
	path         string
}

func (f *fakeDisk) Capacity(p string) (uint64, uint64, error) {
	f.path = p
	return f.total, f.avail, f.err
}

type fakePower struct {
	sources []PowerSourceInfo
	err     error
}

func (f fakePower) Sources() ([]PowerSourceInfo, error) { return f.sources, f.err }

type fakeApps struct {
	list AppList
	err  error
}

func (f fakeApps) Applications() (AppList, error) { return f.list, f.err }

// fakeInterfaces returns counters that grow by a fixed step on every call.
type fakeInterfaces struct {
	mu       sync.Mutex
	counters []net.IOCountersStat
	stepIn   uint64
	stepOut  uint64
	err      error
	calls    int
}

func (f *fakeInterfaces) Counters() ([]net.IOCountersStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.counters) > 0 {
		f.counters[0].BytesRecv += f.stepIn
		f.counters[0].BytesSent += f.stepOut
	}
	out := make([]net.IOCountersStat, len(f.counters))
	copy(out, f.counters)
	return out, nil
}

func (f *fakeInterfaces) set(name string, in, out uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.counters {
		if f.counters[i].Name == name {
			f.counters[i].BytesRecv, f.counters[i].BytesSent = in, out
			return
		}
	}
	f.counters = append(f.counters, net.IOCountersStat{Name: name, BytesRecv: in, BytesSent: out})
}

// fakeClock advances by step after every Now.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
