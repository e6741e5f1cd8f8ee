package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/eapache/queue"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/nbodyffi/internal/ensemble"
	"github.com/san-kum/nbodyffi/internal/sim"
	"github.com/san-kum/nbodyffi/internal/vector"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 120
)

type TickMsg time.Time

// DoneMsg reports that the run feeding the model has stopped.
type DoneMsg struct {
	Result *sim.Result
	Err    error
}

// Model polls an ensemble on every tick and draws its latest whole frame.
// Stepping happens elsewhere; the model only reads.
type Model[V vector.Vector] struct {
	reader   ensemble.Reader[V]
	title    string
	interval time.Duration
	view     View
	canvas   *Canvas
	speeds   *queue.Queue
	snap     ensemble.Snapshot[V]
	seen     bool
	done     bool
	result   *sim.Result
	err      error
	theme    int
	styles   styles
}

// NewModel draws r with extent world units between the origin and the
// nearest edge, refreshing every interval.
func NewModel[V vector.Vector](r ensemble.Reader[V], title string, extent float64, interval time.Duration) Model[V] {
	if interval <= 0 {
		interval = time.Second / 30
	}
	view := View{Extent: extent}
	if vector.Dim[V]() == 3 {
		view.Camera = NewCamera()
	}
	return Model[V]{
		reader:   r,
		title:    title,
		interval: interval,
		view:     view,
		canvas:   NewCanvas(width, height),
		speeds:   queue.New(),
		styles:   newStyles(themes[0]),
	}
}

func (m Model[V]) Init() tea.Cmd {
	return m.tick()
}

func (m Model[V]) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model[V]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "t":
			m.theme = (m.theme + 1) % len(themes)
			m.styles = newStyles(themes[m.theme])
		}
		if cam := m.view.Camera; cam != nil {
			switch msg.String() {
			case "x":
				cam.RotateX(0.1)
			case "X":
				cam.RotateX(-0.1)
			case "y":
				cam.RotateY(0.1)
			case "Y":
				cam.RotateY(-0.1)
			case "+", "=":
				cam.ZoomIn()
			case "-", "_":
				cam.ZoomOut()
			}
			m.draw()
		}
	case TickMsg:
		m.refresh()
		return m, m.tick()
	case DoneMsg:
		m.done = true
		m.result, m.err = msg.Result, msg.Err
		m.refresh()
	}
	return m, nil
}

// refresh reads the latest frame and records its mean speed once.
func (m *Model[V]) refresh() {
	snap := m.reader.Snapshot()
	if !m.seen || snap.Frame != m.snap.Frame {
		if m.speeds.Length() >= historyCapacity {
			m.speeds.Remove()
		}
		m.speeds.Add(meanSpeed(snap.Velocities))
	}
	m.snap, m.seen = snap, true
	m.draw()
}

func (m *Model[V]) draw() {
	Render(m.canvas, m.snap.Positions, m.view)
}

// SpeedHistory returns the recorded mean speeds, oldest first.
func (m Model[V]) SpeedHistory() []float64 {
	out := make([]float64, m.speeds.Length())
	for i := range out {
		out[i] = m.speeds.Get(i).(float64)
	}
	return out
}

func meanSpeed[V vector.Vector](vel []V) float64 {
	if len(vel) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vel {
		sum += vector.Norm(v)
	}
	return sum / float64(len(vel))
}

func (m Model[V]) View() string {
	st := m.styles
	var s strings.Builder

	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	switch {
	case m.done && m.err != nil:
		s.WriteString(st.failed.Render("FAILED") + "\n" + st.value.Render(m.err.Error()) + "\n\n")
	case m.done:
		s.WriteString(st.status.Render("DONE") + "\n\n")
	default:
		s.WriteString(st.status.Render("RUNNING") + "\n\n")
	}

	hist := m.SpeedHistory()
	if len(hist) > 1 {
		chart := asciigraph.Plot(hist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Mean speed"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Frame", fmt.Sprintf("%d", m.snap.Frame))
	row("Time", fmt.Sprintf("%.2f", m.snap.Time))
	row("Particles", fmt.Sprintf("%d", m.reader.Len()))
	row("Dimensions", fmt.Sprintf("%d", vector.Dim[V]()))
	if len(hist) > 0 {
		row("Mean speed", fmt.Sprintf("%.3f", hist[len(hist)-1]))
	}
	if m.result != nil {
		row("Wall", m.result.Wall.Round(time.Millisecond).String())
		row("Step", m.result.MeanStep.String())
	}

	help := "Q:Quit T:Theme"
	if m.view.Camera != nil {
		help += "\nX/Y:Rotate +/-:Zoom"
	}
	s.WriteString(st.help.Render("\n─────────────────────\n" + help))

	canvasView := st.canvas.Render(m.canvas.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(s.String()))
}
