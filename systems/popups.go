package systems

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/zoo/config"
)

// Popup is a transient piece of floating text.
type Popup struct {
	Text  string
	Pos   r2.Vec
	Born  float64
	Alpha float64 // 1 at birth, fading to 0
}

// Popups shows short-lived floating text. Purely cosmetic: nothing in the
// simulation reads it back.
type Popups struct {
	cfg    config.FeedbackConfig
	items  []Popup
	now    float64
	shown  int
	logger *slog.Logger
}

// NewPopups creates an empty popup layer.
func NewPopups(cfg config.FeedbackConfig, logger *slog.Logger) *Popups {
	if logger == nil {
		logger = slog.Default()
	}
	return &Popups{cfg: cfg, logger: logger}
}

// ShowTransientText spawns the configured text at pos.
func (p *Popups) ShowTransientText(pos r2.Vec) {
	p.items = append(p.items, Popup{Text: p.cfg.Text, Pos: pos, Born: p.now, Alpha: 1})
	p.shown++
	p.logger.Debug("popup_shown", "text", p.cfg.Text, "x", pos.X, "y", pos.Y)
}

// Update rises and fades every popup, dropping expired ones.
func (p *Popups) Update(now, dt float64) {
	p.now = now
	kept := p.items[:0]
	for _, it := range p.items {
		age := now - it.Born
		if age >= p.cfg.Duration {
			continue
		}
		it.Alpha = 1 - age/p.cfg.Duration
		it.Pos.Y += p.cfg.RiseSpeed * dt
		kept = append(kept, it)
	}
	p.items = kept
}

// Active returns the popups currently visible.
func (p *Popups) Active() []Popup {
	return p.items
}

// Shown returns how many popups were ever spawned.
func (p *Popups) Shown() int {
	return p.shown
}
