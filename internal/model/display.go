package model

import "fmt"

// Band is a coarse colour class used by the presentation layer.
type Band int

const (
	BandNormal Band = iota
	BandElevated
	BandCritical
)

func (b Band) String() string {
	switch b {
	case BandElevated:
		return "elevated"
	case BandCritical:
		return "critical"
	default:
		return "normal"
	}
}

// UsageBand classifies a usage fraction: below 50% normal, below 80% elevated.
func UsageBand(fraction float64) Band {
	pct := Clamp01(fraction) * 100
	switch {
	case pct < 50:
		return BandNormal
	case pct < 80:
		return BandElevated
	default:
		return BandCritical
	}
}

// BatteryBand classifies a charge level; low charge is the critical end.
func BatteryBand(level int) Band {
	switch {
	case level <= 20:
		return BandCritical
	case level < 50:
		return BandElevated
	default:
		return BandNormal
	}
}

// FormatSpeedMB renders a KB/s rate as MB/s with one decimal below 10.
func FormatSpeedMB(kbps float64) string {
	mbps := kbps / 1024
	if mbps >= 10 {
		return fmt.Sprintf("%.0f", mbps)
	}
	return fmt.Sprintf("%.1f", mbps)
}
