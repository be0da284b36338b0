package sampler

import "github.com/Dicklesworthstone/pulse/internal/model"

// DiskSource reports a volume's capacity and the space realistically
// available to the user on it.
type DiskSource interface {
	Capacity(path string) (total, available uint64, err error)
}

type DiskUsage struct {
	Fraction   float64
	UsedBytes  uint64
	TotalBytes uint64
}

func (d DiskUsage) UsedGB() float64  { return float64(d.UsedBytes) / 1e9 }
func (d DiskUsage) TotalGB() float64 { return float64(d.TotalBytes) / 1e9 }

type DiskProbe struct {
	src  DiskSource
	path string
}

func NewDiskProbe(src DiskSource, path string) *DiskProbe {
	if path == "" {
		path = "/"
	}
	return &DiskProbe{src: src, path: path}
}

func (p *DiskProbe) Read() Reading[DiskUsage] {
	total, avail, err := p.src.Capacity(p.path)
	if err != nil {
		return fallback(DiskUsage{}, unavailable("capacity of "+p.path, err))
	}
	if total == 0 {
		return fallback(DiskUsage{}, unavailable("zero capacity for "+p.path, nil))
	}
	if avail > total {
		avail = total
	}
	used := total - avail
	return ok(DiskUsage{
		Fraction:   model.Clamp01(float64(used) / float64(total)),
		UsedBytes:  used,
		TotalBytes: total,
	})
}
