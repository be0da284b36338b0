package model

import "time"

// MaxActiveApps caps the application list carried by a Snapshot.
const MaxActiveApps = 5

const (
	bytesPerGiB = 1 << 30
	bytesPerGB  = 1_000_000_000
)

// Snapshot is one consistent reading of the host, exchanged between the
// sampler, the terminal preview and the JSON exporter.
type Snapshot struct {
	CPUUsage float64 // fraction 0-1

	MemoryUsage      float64 // fraction 0-1
	MemoryUsedBytes  uint64
	MemoryTotalBytes uint64

	DiskUsage      float64 // fraction 0-1
	DiskUsedBytes  uint64
	DiskTotalBytes uint64

	BatteryLevel int // percent 0-100
	IsCharging   bool

	NetworkUpKBps   float64
	NetworkDownKBps float64

	// ActiveApps lists display names, frontmost first.
	ActiveApps []string

	Timestamp time.Time

	// Degraded names the probes that reported their fallback value.
	Degraded []string
}

// MemoryUsedGiB and friends mirror the units the widgets display.
func (s Snapshot) MemoryUsedGiB() float64  { return float64(s.MemoryUsedBytes) / bytesPerGiB }
func (s Snapshot) MemoryTotalGiB() float64 { return float64(s.MemoryTotalBytes) / bytesPerGiB }
func (s Snapshot) DiskUsedGB() float64     { return float64(s.DiskUsedBytes) / bytesPerGB }
func (s Snapshot) DiskTotalGB() float64    { return float64(s.DiskTotalBytes) / bytesPerGB }

// IsDegraded reports whether the named probe fell back to its default.
func (s Snapshot) IsDegraded(probe string) bool {
	for _, d := range s.Degraded {
		if d == probe {
			return true
		}
	}
	return false
}

// Placeholder is shown before the first real sample arrives.
func Placeholder() Snapshot {
	return Snapshot{
		CPUUsage:         0.45,
		MemoryUsage:      0.62,
		MemoryUsedBytes:  10_952_166_605,
		MemoryTotalBytes: 16 * bytesPerGiB,
		DiskUsage:        0.58,
		DiskUsedBytes:    234_500_000_000,
		DiskTotalBytes:   512_000_000_000,
		BatteryLevel:     78,
		IsCharging:       true,
		NetworkUpKBps:    125.4,
		NetworkDownKBps:  892.1,
		ActiveApps:       []string{"Firefox", "Terminal", "Slack"},
		Timestamp:        time.Now(),
	}
}

// Clamp01 bounds a fraction to [0,1]; NaN collapses to 0.
func Clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
