package sampler

import "github.com/Dicklesworthstone/pulse/internal/model"

// Application is a running user-facing app in launch order.
type Application struct {
	Name   string
	Active bool // currently focused
}

// AppList is one enumeration. Frontmost is empty when it cannot be told.
type AppList struct {
	Running   []Application
	Frontmost string
}

type AppSource interface {
	Applications() (AppList, error)
}

// AppsProbe lists up to model.MaxActiveApps distinct names, frontmost first.
// A nil source disables the probe.
type AppsProbe struct {
	src AppSource
}

func NewAppsProbe(src AppSource) *AppsProbe { return &AppsProbe{src: src} }

func (p *AppsProbe) Read() Reading[[]string] {
	if p.src == nil {
		return ok([]string{})
	}
	list, err := p.src.Applications()
	if err != nil {
		return fallback([]string{}, unavailable("running applications", err))
	}
	return ok(rankApps(list))
}

func rankApps(list AppList) []string {
	seen := make(map[string]bool)
	names := make([]string, 0, model.MaxActiveApps)
	if list.Frontmost != "" {
		names = append(names, list.Frontmost)
		seen[list.Frontmost] = true
	}
	for _, app := range list.Running {
		if len(names) >= model.MaxActiveApps {
			break
		}
		if app.Active || app.Name == "" || seen[app.Name] {
			continue
		}
		seen[app.Name] = true
		names = append(names, app.Name)
	}
	return names
}
