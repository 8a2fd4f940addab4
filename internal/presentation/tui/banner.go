package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`      _       _    __ _`, "#2dd4bf"},
	{`  ___| | ___ | |_ / _| | _____      __`, "#22d3ee"},
	{` / __| |/ _ \| __| |_| |/ _ \ \ /\ / /`, "#38bdf8"},
	{` \__ \ | (_) | |_|  _| | (_) \ V  V /`, "#60a5fa"},
	{` |___/_|\___/ \__|_| |_|\___/ \_/\_/`, "#818cf8"},
}

// PrintBanner writes the slotflow banner and version to w, colored for the
// terminal profile.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, p.String("  v"+strings.TrimPrefix(strings.TrimSpace(version), "v")).Faint())
	}
	fmt.Fprintln(w)
}
