package domain

import (
	"fmt"
	"strings"
)

// OverlayCommand tells the overlay to show or hide a team panel or the clock.
type OverlayCommand int

const (
	ShowRight OverlayCommand = iota
	HideRight
	ShowLeft
	HideLeft
	ShowTime
	HideTime
)

var commandNames = [...]string{
	ShowRight: "SHOW_RIGHT",
	HideRight: "HIDE_RIGHT",
	ShowLeft:  "SHOW_LEFT",
	HideLeft:  "HIDE_LEFT",
	ShowTime:  "SHOW_TIME",
	HideTime:  "HIDE_TIME",
}

// commandsByName is keyed by the upper-cased wire name.
var commandsByName = func() map[string]OverlayCommand {
	m := make(map[string]OverlayCommand, len(commandNames))
	for cmd, name := range commandNames {
		m[name] = OverlayCommand(cmd)
	}
	return m
}()

// ParseOverlayCommand matches a frame payload against the known commands, ignoring case.
func ParseOverlayCommand(raw string) (OverlayCommand, bool) {
	cmd, ok := commandsByName[strings.ToUpper(strings.TrimSpace(raw))]
	return cmd, ok
}

// OverlayCommands lists every command in declaration order.
func OverlayCommands() []OverlayCommand {
	out := make([]OverlayCommand, len(commandNames))
	for i := range commandNames {
		out[i] = OverlayCommand(i)
	}
	return out
}

func (c OverlayCommand) String() string {
	if c >= 0 && int(c) < len(commandNames) {
		return commandNames[c]
	}
	return fmt.Sprintf("OverlayCommand(%d)", int(c))
}

func (c OverlayCommand) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
