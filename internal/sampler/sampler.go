package sampler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Dicklesworthstone/pulse/internal/model"
	"github.com/Dicklesworthstone/pulse/internal/store"
)

// Probe names as reported in Snapshot.Degraded.
const (
	ProbeCPU     = "cpu"
	ProbeMemory  = "memory"
	ProbeDisk    = "disk"
	ProbeBattery = "battery"
	ProbeNetwork = "network"
	ProbeApps    = "apps"
)

// Probes is the full set the Sampler reads on every call.
type Probes struct {
	CPU     *CPUProbe
	Memory  *MemoryProbe
	Disk    *DiskProbe
	Battery *BatteryProbe
	Network *NetworkProbe
	Apps    *AppsProbe
}

// SystemOptions selects what the OS-backed probes look at.
type SystemOptions struct {
	Volume            string
	InterfacePrefixes []string
	PowerSupplyDir    string
	EnableBattery     bool
	EnableApps        bool
}

// SystemProbes wires every probe to the running host. The network baseline
// lives in st.
func SystemProbes(opts SystemOptions, st store.Store) Probes {
	p := Probes{
		CPU:     NewCPUProbe(SystemCPU{}),
		Memory:  NewMemoryProbe(SystemMemory{}),
		Disk:    NewDiskProbe(SystemDisk{}, opts.Volume),
		Battery: NewBatteryProbe(nil),
		Network: NewNetworkProbe(st, SystemInterfaces{}, SystemClock, opts.InterfacePrefixes),
		Apps:    NewAppsProbe(nil),
	}
	if opts.EnableBattery {
		p.Battery = NewBatteryProbe(NewSysfsPower(opts.PowerSupplyDir))
	}
	if opts.EnableApps {
		p.Apps = NewAppsProbe(SessionApps{})
	}
	return p
}

// Sampler assembles Snapshots. Only one Sample runs at a time: the network
// probe's read-modify-write of its baseline must not interleave.
type Sampler struct {
	Interval time.Duration

	probes Probes
	clock  Clock
	log    *zap.Logger

	mu sync.Mutex
}

func New(interval time.Duration, probes Probes, log *zap.Logger) *Sampler {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Sampler{
		Interval: interval,
		probes:   probes,
		clock:    SystemClock,
		log:      log,
	}
}

// WithClock replaces the clock used for Snapshot timestamps.
func (s *Sampler) WithClock(c Clock) *Sampler {
	s.clock = c
	return s
}

// ResetNetwork drops the persisted network baseline.
func (s *Sampler) ResetNetwork() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probes.Network.Reset()
}

// Sample reads every probe once. A probe that fails contributes its default
// value and its name to Degraded; it never stops the others.
func (s *Sampler) Sample() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var degraded []string
	note := func(name string, err error) {
		if err == nil {
			return
		}
		degraded = append(degraded, name)
		s.log.Debug("probe degraded", zap.String("probe", name), zap.Error(err))
	}

	cpuR := s.probes.CPU.Read()
	note(ProbeCPU, cpuR.Err)
	memR := s.probes.Memory.Read()
	note(ProbeMemory, memR.Err)
	diskR := s.probes.Disk.Read()
	note(ProbeDisk, diskR.Err)
	battR := s.probes.Battery.Read()
	note(ProbeBattery, battR.Err)
	netR := s.probes.Network.Read()
	note(ProbeNetwork, netR.Err)
	appsR := s.probes.Apps.Read()
	note(ProbeApps, appsR.Err)

	return model.Snapshot{
		CPUUsage:         cpuR.Value,
		MemoryUsage:      memR.Value.Fraction,
		MemoryUsedBytes:  memR.Value.UsedBytes,
		MemoryTotalBytes: memR.Value.TotalBytes,
		DiskUsage:        diskR.Value.Fraction,
		DiskUsedBytes:    diskR.Value.UsedBytes,
		DiskTotalBytes:   diskR.Value.TotalBytes,
		BatteryLevel:     battR.Value.Level,
		IsCharging:       battR.Value.Charging,
		NetworkUpKBps:    netR.Value.UpKBps,
		NetworkDownKBps:  netR.Value.DownKBps,
		ActiveApps:       appsR.Value,
		Timestamp:        s.clock.Now(),
		Degraded:         degraded,
	}
}

// Stream returns a channel that receives a snapshot right away and then one
// per Interval until ctx is done.
func (s *Sampler) Stream(ctx context.Context) <-chan model.Snapshot {
	ch := make(chan model.Snapshot)
	go func() {
		defer close(ch)
		if !s.emit(ctx, ch) {
			return
		}
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !s.emit(ctx, ch) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (s *Sampler) emit(ctx context.Context, ch chan<- model.Snapshot) bool {
	snap := s.Sample()
	select {
	case ch <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
