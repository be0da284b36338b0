package sampler

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemCPU reads per-core times through gopsutil.
type SystemCPU struct{}

func (SystemCPU) PerCoreTimes() ([]cpu.TimesStat, error) { return cpu.Times(true) }

// SystemMemory maps gopsutil's byte counts back to pages. On Linux there is
// no wired counter, so kernel unreclaimable slab and page tables stand in
// for it; compressed memory is not exposed and stays zero.
type SystemMemory struct{}

func (SystemMemory) MemoryCounters() (MemoryCounters, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryCounters{}, err
	}
	page := uint64(os.Getpagesize())
	wired := vm.Wired
	if wired == 0 && runtime.GOOS == "linux" {
		wired = vm.Sunreclaim + vm.PageTables
	}
	return MemoryCounters{
		ActivePages: vm.Active / page,
		WiredPages:  wired / page,
		PageSize:    page,
		TotalBytes:  vm.Total,
	}, nil
}

// SystemDisk uses statfs via gopsutil. Free is the space available to
// unprivileged users, which already leaves out root-reserved blocks.
type SystemDisk struct{}

func (SystemDisk) Capacity(p string) (uint64, uint64, error) {
	u, err := disk.Usage(p)
	if err != nil {
		return 0, 0, err
	}
	return u.Total, u.Free, nil
}

// SystemInterfaces reads per-interface counters through gopsutil.
type SystemInterfaces struct{}

func (SystemInterfaces) Counters() ([]net.IOCountersStat, error) { return net.IOCounters(true) }

// DefaultPowerSupplyDir is where Linux exposes batteries and adapters.
const DefaultPowerSupplyDir = "/sys/class/power_supply"

// SysfsPower enumerates power_supply entries. Entries without a capacity
// file (AC adapters) are reported with a nil Capacity.
type SysfsPower struct {
	FS fs.FS
}

func NewSysfsPower(dir string) SysfsPower {
	if dir == "" {
		dir = DefaultPowerSupplyDir
	}
	return SysfsPower{FS: os.DirFS(dir)}
}

func (s SysfsPower) Sources() ([]PowerSourceInfo, error) {
	entries, err := fs.ReadDir(s.FS, ".")
	if err != nil {
		return nil, err
	}
	var out []PowerSourceInfo
	for _, e := range entries {
		info := PowerSourceInfo{Name: e.Name()}
		if b, err := fs.ReadFile(s.FS, path.Join(e.Name(), "capacity")); err == nil {
			if v, err := strconv.Atoi(strings.TrimSpace(string(b))); err == nil {
				info.Capacity = &v
			}
		}
		if b, err := fs.ReadFile(s.FS, path.Join(e.Name(), "status")); err == nil {
			charging := strings.TrimSpace(string(b)) == "Charging"
			info.Charging = &charging
		}
		out = append(out, info)
	}
	return out, nil
}

// SessionApps treats the current user's processes attached to a graphical
// session as user-facing applications. The focused window is resolved with
// xdotool when it is installed.
type SessionApps struct {
	// FrontmostPID overrides the xdotool lookup; nil means use xdotool.
	FrontmostPID func() (int32, bool)
}

func (a SessionApps) Applications() (AppList, error) {
	procs, err := process.Processes()
	if err != nil {
		return AppList{}, err
	}
	var candidates []sessionProc
	for _, p := range procs {
		name, _ := p.Name()
		if name == "" {
			continue
		}
		c := sessionProc{pid: p.Pid, name: name, uid: -1}
		if uids, err := p.Uids(); err == nil && len(uids) > 0 {
			c.uid = uids[0]
		}
		c.env, _ = p.Environ()
		c.created, _ = p.CreateTime()
		candidates = append(candidates, c)
	}
	frontPID, haveFront := a.frontmost()
	if !haveFront {
		frontPID = -1
	}
	return sessionApps(candidates, int32(os.Getuid()), frontPID), nil
}

// sessionProc is the part of a process SessionApps looks at.
type sessionProc struct {
	pid     int32
	name    string
	uid     int32
	env     []string
	created int64
}

// sessionApps keeps uid's graphical processes in launch order. frontPID < 0
// means no window has focus. The frontmost name is resolved even when that
// process is filtered out.
func sessionApps(procs []sessionProc, uid, frontPID int32) AppList {
	var list AppList
	var kept []sessionProc
	for _, p := range procs {
		if p.pid == frontPID {
			list.Frontmost = p.name
		}
		if p.uid != uid || !graphical(p.env) {
			continue
		}
		kept = append(kept, p)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].created < kept[j].created })
	for _, p := range kept {
		list.Running = append(list.Running, Application{Name: p.name, Active: p.pid == frontPID})
	}
	return list
}

func (a SessionApps) frontmost() (int32, bool) {
	if a.FrontmostPID != nil {
		return a.FrontmostPID()
	}
	out, err := runCmd(400*time.Millisecond, "xdotool", "getactivewindow", "getwindowpid")
	if err != nil {
		return 0, false
	}
	return parseWindowPID(out)
}

// parseWindowPID reads the pid printed by xdotool getwindowpid.
func parseWindowPID(out string) (int32, bool) {
	pid, err := strconv.ParseInt(strings.TrimSpace(out), 10, 32)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return int32(pid), true
}

func graphical(env []string) bool {
	for _, kv := range env {
		if strings.HasPrefix(kv, "DISPLAY=") || strings.HasPrefix(kv, "WAYLAND_DISPLAY=") {
			return true
		}
	}
	return false
}

func runCmd(timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "", ctx.Err()
	}
	return string(out), err
}
