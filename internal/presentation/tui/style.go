package tui

import (
	"fmt"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/muesli/termenv"
)

// Styler decorates transcript messages for a terminal.
type Styler struct {
	profile termenv.Profile
}

// NewStyler returns a Styler for the given profile. Use termenv.Ascii to
// disable colors.
func NewStyler(profile termenv.Profile) *Styler {
	return &Styler{profile: profile}
}

// DetectStyler picks the color profile from the environment.
func DetectStyler() *Styler {
	return NewStyler(termenv.EnvColorProfile())
}

var stepColors = map[domain.StepType]string{
	domain.StepStart:        "#38bdf8",
	domain.StepConfirmation: "#a78bfa",
	domain.StepNoMatch:      "#fb923c",
	domain.StepNoInput:      "#facc15",
	domain.StepSuccess:      "#4ade80",
}

// Message renders one transcript line.
func (s *Styler) Message(m domain.Message) string {
	if m.Direction == domain.DirectionUser {
		return s.profile.String("> " + m.Text).Faint().String()
	}
	out := s.profile.String(m.Text)
	if c, ok := stepColors[m.Step]; ok {
		out = out.Foreground(s.profile.Color(c))
	}
	if m.Level > 1 {
		out = out.Bold()
	}
	return out.String()
}

// Gap renders a resolution gap as a warning line.
func (s *Styler) Gap(g domain.ResolutionGap) string {
	text := fmt.Sprintf("[no text for %s level %d on node %s]", g.Step, g.Level, g.NodeID)
	return s.profile.String(text).Foreground(s.profile.Color("#f87171")).Italic().String()
}

// Prompt renders the input prompt.
func (s *Styler) Prompt() string {
	return s.profile.String("> ").Foreground(s.profile.Color("#2dd4bf")).String()
}
