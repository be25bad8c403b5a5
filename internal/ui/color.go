// Package ui holds the console styling shared by the CLI commands
package ui

import (
	"github.com/pterm/pterm"
)

// DarkTheme switches to the light variants of each colour so that text
// stays readable on dark terminals.
var DarkTheme bool

func paint(light, dark pterm.Color, a any) string {
	if DarkTheme {
		return dark.Sprint(a)
	}

	return light.Sprint(a)
}

func Green(a any) string {
	return paint(pterm.FgGreen, pterm.FgLightGreen, a)
}

func Blue(a any) string {
	return paint(pterm.FgBlue, pterm.FgLightBlue, a)
}

func Magenta(a any) string {
	return paint(pterm.FgMagenta, pterm.FgLightMagenta, a)
}

func Red(a any) string {
	return paint(pterm.FgRed, pterm.FgLightRed, a)
}

func Yellow(a any) string {
	return paint(pterm.FgYellow, pterm.FgLightYellow, a)
}

// Highlight emphasises a value inside a sentence.
func Highlight(a any) string {
	return paint(pterm.FgBlack, pterm.FgLightWhite, a)
}
