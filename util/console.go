package util

import (
	"os"

	"github.com/muesli/termenv"
)

// Palette renders report fragments with terminal colors. The zero value
// renders without colors.
type Palette struct {
	profile termenv.Profile
	colored bool
}

// NewPalette returns a palette for the given profile; termenv.Ascii disables colors.
func NewPalette(profile termenv.Profile) Palette {
	return Palette{profile: profile, colored: profile != termenv.Ascii}
}

// DetectPalette picks a palette from the stdout terminal and the NO_COLOR/CLICOLOR_FORCE env.
func DetectPalette() Palette {
	return NewPalette(termenv.NewOutput(os.Stdout).EnvColorProfile())
}

// PlainPalette never emits escape sequences.
func PlainPalette() Palette {
	return NewPalette(termenv.Ascii)
}

func (p Palette) style(s string) termenv.Style {
	if !p.colored {
		return termenv.Ascii.String(s)
	}
	return p.profile.String(s)
}

func (p Palette) Failed(s string) string {
	return p.style(s).Foreground(p.profile.Color("1")).Bold().String()
}

func (p Palette) FailedUnderline(s string) string {
	return p.style(s).Foreground(p.profile.Color("1")).Bold().Underline().String()
}

func (p Palette) BlueUnderline(s string) string {
	return p.style(s).Foreground(p.profile.Color("4")).Underline().String()
}

func (p Palette) Warning(s string) string {
	return p.style(s).Foreground(p.profile.Color("3")).Bold().String()
}

func (p Palette) Success(s string) string {
	return p.style(s).Foreground(p.profile.Color("2")).Bold().String()
}

func (p Palette) Info(s string) string {
	return p.style(s).Foreground(p.profile.Color("4")).Bold().String()
}
