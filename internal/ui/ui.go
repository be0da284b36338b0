package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/pulse/internal/model"
	"github.com/Dicklesworthstone/pulse/internal/sampler"
)

// Size mirrors the three widget families.
type Size int

const (
	Small Size = iota
	Medium
	Large
)

func (s Size) String() string {
	switch s {
	case Small:
		return "Small"
	case Large:
		return "Large"
	default:
		return "Medium"
	}
}

func (s Size) next() Size { return (s + 1) % 3 }

// Model renders live snapshots from the sampler.
type Model struct {
	host      string
	size      Size
	latest    model.Snapshot
	live      bool
	stream    <-chan model.Snapshot
	ctxCancel context.CancelFunc
}

func New(s *sampler.Sampler, host string) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		host:      host,
		size:      Medium,
		latest:    model.Placeholder(),
		stream:    s.Stream(ctx),
		ctxCancel: cancel,
	}
}

// Messages
type tickMsg struct{}

func tickCmd() tea.Cmd { return tea.Tick(time.Second/5, func(time.Time) tea.Msg { return tickMsg{} }) }

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Close()
			return m, tea.Quit
		case "s", "tab":
			m.size = m.size.next()
		case "1":
			m.size = Small
		case "2":
			m.size = Medium
		case "3":
			m.size = Large
		}
	case tickMsg:
		select {
		case snap, ok := <-m.stream:
			if ok {
				m.latest = snap
				m.live = true
			}
		default:
		}
		return m, tickCmd()
	}
	return m, nil
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	liveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1)

	cpuColor  = lipgloss.Color("78")
	ramColor  = lipgloss.Color("75")
	diskColor = lipgloss.Color("215")
	upColor   = lipgloss.Color("69")
	downColor = lipgloss.Color("71")

	bandColors = map[model.Band]lipgloss.Color{
		model.BandNormal:   lipgloss.Color("78"),
		model.BandElevated: lipgloss.Color("214"),
		model.BandCritical: lipgloss.Color("203"),
	}
)

func (m *Model) View() string {
	status := subtleStyle.Render("preview")
	if m.live {
		status = liveStyle.Render("● Live")
	}
	header := titleStyle.Render("Pulse") + "  " +
		subtleStyle.Render(m.host+"  "+m.latest.Timestamp.Format("15:04:05")) + "  " + status

	picker := make([]string, 0, 3)
	for _, sz := range []Size{Small, Medium, Large} {
		label := sz.String()
		if sz == m.size {
			label = labelStyle.Render("[" + label + "]")
		} else {
			label = subtleStyle.Render(" " + label + " ")
		}
		picker = append(picker, label)
	}

	footer := subtleStyle.Render("s cycle size · 1/2/3 pick · q quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		strings.Join(picker, " "),
		Render(m.size, m.latest),
		footer,
	)
}

// Render lays out one snapshot at the given size.
func Render(size Size, s model.Snapshot) string {
	switch size {
	case Small:
		return renderSmall(s)
	case Large:
		return renderLarge(s)
	default:
		return renderMedium(s)
	}
}

func renderSmall(s model.Snapshot) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		battery(s),
		"",
		gauge("CPU", s.CPUUsage, cpuColor, 12),
		gauge("RAM", s.MemoryUsage, ramColor, 12),
		"",
		network(s),
	)
	return cardStyle.Render(body)
}

func renderMedium(s model.Snapshot) string {
	gauges := lipgloss.JoinVertical(lipgloss.Left,
		gauge("CPU", s.CPUUsage, cpuColor, 16),
		gauge("RAM", s.MemoryUsage, ramColor, 16),
		gauge("Disk", s.DiskUsage, diskColor, 16),
	)
	details := lipgloss.JoinVertical(lipgloss.Left,
		battery(s),
		dot(ramColor)+fmt.Sprintf(" RAM  %.1f/%.0fG", s.MemoryUsedGiB(), s.MemoryTotalGiB()),
		dot(diskColor)+fmt.Sprintf(" Disk %.0f/%.0fG", s.DiskUsedGB(), s.DiskTotalGB()),
		network(s),
	)
	return cardStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, gauges, "   ", details))
}

func renderLarge(s model.Snapshot) string {
	head := lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render("System"), "   ", battery(s))
	gauges := lipgloss.JoinVertical(lipgloss.Left,
		gauge("CPU", s.CPUUsage, cpuColor, 24),
		gauge("Memory", s.MemoryUsage, ramColor, 24),
		gauge("Storage", s.DiskUsage, diskColor, 24),
	)
	rows := []string{
		dot(ramColor) + fmt.Sprintf(" Memory Used   %.1f / %.0f GB", s.MemoryUsedGiB(), s.MemoryTotalGiB()),
		dot(diskColor) + fmt.Sprintf(" Storage Used  %.0f / %.0f GB", s.DiskUsedGB(), s.DiskTotalGB()),
		"  Network       " + network(s),
	}
	apps := subtleStyle.Render("Active Apps")
	if len(s.ActiveApps) == 0 {
		apps += "\n  " + subtleStyle.Render("none")
	}
	for i, name := range s.ActiveApps {
		marker := "  "
		if i == 0 {
			marker = liveStyle.Render("▸ ")
		}
		apps += "\n" + marker + truncate(name, 24)
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		head, "", gauges, "", strings.Join(rows, "\n"), "", apps))
}

// Helpers
func gauge(label string, fraction float64, color lipgloss.Color, width int) string {
	fraction = model.Clamp01(fraction)
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat(gaugeFill, filled)) +
		subtleStyle.Render(strings.Repeat(gaugeEmpty, width-filled))
	pct := lipgloss.NewStyle().Foreground(bandColors[model.UsageBand(fraction)]).
		Render(fmt.Sprintf("%5.1f%%", fraction*100))
	return fmt.Sprintf("%-7s %s %s", label, bar, pct)
}

func battery(s model.Snapshot) string {
	icon := "▭"
	if s.IsCharging {
		icon = "⚡"
	}
	style := lipgloss.NewStyle().Foreground(bandColors[model.BatteryBand(s.BatteryLevel)])
	return style.Render(icon) + fmt.Sprintf(" %d%%", s.BatteryLevel)
}

func network(s model.Snapshot) string {
	up := lipgloss.NewStyle().Foreground(upColor).Render("↑")
	down := lipgloss.NewStyle().Foreground(downColor).Render("↓")
	return fmt.Sprintf("%s%s %s%s %s", up, model.FormatSpeedMB(s.NetworkUpKBps),
		down, model.FormatSpeedMB(s.NetworkDownKBps), subtleStyle.Render("MB"))
}

func dot(c lipgloss.Color) string { return lipgloss.NewStyle().Foreground(c).Render("●") }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Close stops the sampler stream feeding the model.
func (m *Model) Close() { m.ctxCancel() }

// RunTUI starts the Bubble Tea program.
func RunTUI(s *sampler.Sampler, host string) error {
	m := New(s, host)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
