package model

import (
	"encoding/json"
	"strconv"
	"time"
)

type snapshotJSON struct {
	Timestamp       string      `json:"timestamp"`
	CPUUsage        json.Number `json:"cpu_usage"`
	MemoryUsage     json.Number `json:"memory_usage"`
	MemoryUsedGB    json.Number `json:"memory_used_gb"`
	MemoryTotalGB   json.Number `json:"memory_total_gb"`
	DiskUsage       json.Number `json:"disk_usage"`
	DiskUsedGB      json.Number `json:"disk_used_gb"`
	DiskTotalGB     json.Number `json:"disk_total_gb"`
	BatteryLevel    int         `json:"battery_level"`
	IsCharging      bool        `json:"is_charging"`
	NetworkUpKBps   json.Number `json:"network_up_kbps"`
	NetworkDownKBps json.Number `json:"network_down_kbps"`
	ActiveApps      []string    `json:"active_apps"`
	Degraded        []string    `json:"degraded,omitempty"`
}

// MarshalJSON writes numbers as fixed-precision decimals so consumers can
// print them verbatim.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	apps := s.ActiveApps
	if apps == nil {
		apps = []string{}
	}
	return json.Marshal(snapshotJSON{
		Timestamp:       s.Timestamp.UTC().Format(time.RFC3339Nano),
		CPUUsage:        fixed(s.CPUUsage, 4),
		MemoryUsage:     fixed(s.MemoryUsage, 4),
		MemoryUsedGB:    fixed(s.MemoryUsedGiB(), 2),
		MemoryTotalGB:   fixed(s.MemoryTotalGiB(), 2),
		DiskUsage:       fixed(s.DiskUsage, 4),
		DiskUsedGB:      fixed(s.DiskUsedGB(), 2),
		DiskTotalGB:     fixed(s.DiskTotalGB(), 2),
		BatteryLevel:    s.BatteryLevel,
		IsCharging:      s.IsCharging,
		NetworkUpKBps:   fixed(s.NetworkUpKBps, 2),
		NetworkDownKBps: fixed(s.NetworkDownKBps, 2),
		ActiveApps:      apps,
		Degraded:        s.Degraded,
	})
}

func fixed(v float64, prec int) json.Number {
	if v != v {
		v = 0
	}
	return json.Number(strconv.FormatFloat(v, 'f', prec, 64))
}
