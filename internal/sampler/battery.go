package sampler

// PowerSourceInfo describes one power source. Fields the source does not
// expose are nil.
type PowerSourceInfo struct {
	Name     string
	Capacity *int
	Charging *bool
}

type PowerSource interface {
	Sources() ([]PowerSourceInfo, error)
}

type BatteryState struct {
	Level    int
	Charging bool
}

// NoBattery is reported by hosts without a battery and on any failure, so
// displays never need an empty case.
var NoBattery = BatteryState{Level: 100, Charging: false}

// BatteryProbe reports the first power source exposing both a capacity and
// a charging flag. A nil source disables the probe.
type BatteryProbe struct {
	src PowerSource
}

func NewBatteryProbe(src PowerSource) *BatteryProbe { return &BatteryProbe{src: src} }

func (p *BatteryProbe) Read() Reading[BatteryState] {
	if p.src == nil {
		return ok(NoBattery)
	}
	sources, err := p.src.Sources()
	if err != nil {
		return fallback(NoBattery, unavailable("power sources", err))
	}
	for _, s := range sources {
		if s.Capacity == nil || s.Charging == nil {
			continue
		}
		level := *s.Capacity
		if level < 0 {
			level = 0
		}
		if level > 100 {
			level = 100
		}
		return ok(BatteryState{Level: level, Charging: *s.Charging})
	}
	return fallback(NoBattery, unavailable("no battery found", nil))
}
