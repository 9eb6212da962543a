package animation

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FrameMsg is one animation tick. Gen is the loop generation it was
// scheduled under.
type FrameMsg struct {
	Gen  uint64
	Time time.Time
}

// Loop is a self-rescheduling frame tick. Every Start or Stop bumps the
// generation, so ticks scheduled before it are recognised as stale and
// dropped instead of rescheduled.
type Loop struct {
	interval time.Duration
	gen      uint64
	running  bool
}

func New(fps int) *Loop {
	if fps <= 0 {
		fps = 30
	}
	return &Loop{interval: time.Second / time.Duration(fps)}
}

func (l *Loop) Interval() time.Duration { return l.interval }
func (l *Loop) Running() bool           { return l.running }
func (l *Loop) Generation() uint64      { return l.gen }

// Start begins a new generation and schedules its first tick. Any tick still
// in flight from a previous generation becomes stale.
func (l *Loop) Start() tea.Cmd {
	l.gen++
	l.running = true
	return l.schedule()
}

// Stop cancels the loop. Pending ticks will be rejected by Accept.
func (l *Loop) Stop() {
	l.gen++
	l.running = false
}

// Accept reports whether msg belongs to the live generation.
func (l *Loop) Accept(msg FrameMsg) bool {
	return l.running && msg.Gen == l.gen
}

// Next schedules the following tick for the live generation, or nothing when
// stopped.
func (l *Loop) Next() tea.Cmd {
	if !l.running {
		return nil
	}
	return l.schedule()
}

func (l *Loop) schedule() tea.Cmd {
	gen := l.gen
	return tea.Tick(l.interval, func(t time.Time) tea.Msg {
		return FrameMsg{Gen: gen, Time: t}
	})
}
