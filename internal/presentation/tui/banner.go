package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner shown when the interactive
// dispatch loop starts on a terminal.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Indigo/Violet)
	s1 := termenv.String("  ______  _____ _____        _      _____ ______ _____  ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String(" |  ____|/ ____|  __ \\ /\\   | |    |_   _|  ____|  __ \\ ").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String(" | |__  | (___ | |__) /  \\  | |      | | | |__  | |__) |").Foreground(p.Color("#c084fc"))
	s4 := termenv.String(" |  __|  \\___ \\|  ___/ /\\ \\ | |      | | |  __| |  _  / ").Foreground(p.Color("#e879f9"))
	s5 := termenv.String(" | |____ ____) | |  / ____ \\| |____ _| |_| |____| | \\ \\ ").Foreground(p.Color("#f472b6"))
	s6 := termenv.String(" |______|_____/|_| /_/    \\_\\______|_____|______|_|  \\_\\").Foreground(p.Color("#fb7185"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	fmt.Println()
	fmt.Println(termenv.String(fmt.Sprintf("  contract dispatch engine v%s", version)).Faint())
	fmt.Println()
}
