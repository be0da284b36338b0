package sampler

import (
	"github.com/Dicklesworthstone/pulse/internal/model"
	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUSource yields cumulative per-core tick counters.
type CPUSource interface {
	PerCoreTimes() ([]cpu.TimesStat, error)
}

// CPUProbe reports aggregate busy time as a fraction, averaged over cores.
// The figure comes straight from the OS accounting counters; it is not a
// delta against the previous sample.
type CPUProbe struct {
	src CPUSource
}

func NewCPUProbe(src CPUSource) *CPUProbe { return &CPUProbe{src: src} }

func (p *CPUProbe) Read() Reading[float64] {
	times, err := p.src.PerCoreTimes()
	if err != nil {
		return fallback(0.0, unavailable("per-core cpu times", err))
	}

	var sum float64
	cores := 0
	for _, t := range times {
		used := t.User + t.System + t.Nice
		total := used + t.Idle
		if total <= 0 {
			continue
		}
		sum += used / total
		cores++
	}
	if cores == 0 {
		return fallback(0.0, unavailable("no core reported ticks", nil))
	}
	return ok(model.Clamp01(sum / float64(cores)))
}
