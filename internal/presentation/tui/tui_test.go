package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestStyler_AsciiIsPlain(t *testing.T) {
	s := NewStyler(termenv.Ascii)

	assert.Equal(t, "Your email?", s.Message(domain.Message{Direction: domain.DirectionSystem, Text: "Your email?", Step: domain.StepStart}))
	assert.Equal(t, "> a@b.com", s.Message(domain.Message{Direction: domain.DirectionUser, Text: "a@b.com"}))
	assert.Equal(t, "> ", s.Prompt())
	assert.Contains(t, s.Gap(domain.ResolutionGap{NodeID: "email", Step: domain.StepNoMatch, Level: 2}), "noMatch level 2 on node email")
}

func TestStyler_ColorsEscalations(t *testing.T) {
	s := NewStyler(termenv.TrueColor)
	out := s.Message(domain.Message{Direction: domain.DirectionSystem, Text: "Try again", Step: domain.StepNoMatch, Level: 2})
	assert.Contains(t, out, "Try again")
	assert.NotEqual(t, "Try again", out)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.3.0\n")
	assert.Contains(t, buf.String(), "v0.3.0")
}

func TestIsInteractive_Nil(t *testing.T) {
	assert.False(t, IsInteractive(nil))
	assert.Equal(t, 80, Width(nil, 80))
}
