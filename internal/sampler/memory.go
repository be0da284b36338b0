package sampler

import (
	"sync"

	"github.com/Dicklesworthstone/pulse/internal/model"
)

// MemoryCounters are raw VM page counts plus the physical memory size.
type MemoryCounters struct {
	ActivePages     uint64
	WiredPages      uint64
	CompressedPages uint64
	PageSize        uint64
	TotalBytes      uint64
}

type MemorySource interface {
	MemoryCounters() (MemoryCounters, error)
}

// MemoryUsage counts active+wired+compressed pages as "used": free memory
// alone overstates pressure on hosts that cache aggressively.
type MemoryUsage struct {
	Fraction   float64
	UsedBytes  uint64
	TotalBytes uint64
}

type MemoryProbe struct {
	src MemorySource

	mu    sync.Mutex
	total uint64 // physical memory, fixed after the first good read
}

func NewMemoryProbe(src MemorySource) *MemoryProbe { return &MemoryProbe{src: src} }

func (p *MemoryProbe) Read() Reading[MemoryUsage] {
	c, err := p.src.MemoryCounters()
	if err != nil {
		return fallback(MemoryUsage{}, unavailable("vm statistics", err))
	}

	p.mu.Lock()
	if p.total == 0 {
		p.total = c.TotalBytes
	}
	total := p.total
	p.mu.Unlock()

	if total == 0 {
		return fallback(MemoryUsage{}, unavailable("physical memory size is zero", nil))
	}

	used := (c.ActivePages + c.WiredPages + c.CompressedPages) * c.PageSize
	return ok(MemoryUsage{
		Fraction:   model.Clamp01(float64(used) / float64(total)),
		UsedBytes:  used,
		TotalBytes: total,
	})
}
