package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Score captures the left and right side points of the running match.
type Score struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Team is the display shape of a team as resolved from the scoring server.
type Team struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	ColorBright Color    `json:"colorBright"`
	ColorDark   Color    `json:"colorDark"`
	Members     []string `json:"members"`
}

// NewTeam builds a Team, copying members so the value stays immutable.
func NewTeam(id int, name string, bright, dark Color, members []string) Team {
	return Team{
		ID:          id,
		Name:        name,
		ColorBright: bright,
		ColorDark:   dark,
		Members:     slices.Clone(members),
	}
}

// CurrentMatch pairs the teams standing on the left and right side.
type CurrentMatch struct {
	Left  Team `json:"left"`
	Right Team `json:"right"`
}

// MatchState mirrors the server's match lifecycle.
type MatchState int

const (
	MatchUpcoming MatchState = iota
	MatchPlaying
	MatchEnded
)

var matchStateNames = map[MatchState]string{
	MatchUpcoming: "UPCOMING",
	MatchPlaying:  "PLAYING",
	MatchEnded:    "ENDED",
}

func (s MatchState) String() string {
	if name, ok := matchStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("MatchState(%d)", int(s))
}

// ParseMatchState matches a state name case-insensitively.
func ParseMatchState(raw string) (MatchState, bool) {
	return lookupName(matchStateNames, raw)
}

// Result is the outcome of a match from the left/right point of view.
type Result int

const (
	LeftWon Result = iota
	RightWon
	NotFinished
)

var resultNames = map[Result]string{
	LeftWon:     "LEFT_WON",
	RightWon:    "RIGHT_WON",
	NotFinished: "NOT_FINISHED",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// ParseResult matches a result name case-insensitively.
func ParseResult(raw string) (Result, bool) {
	return lookupName(resultNames, raw)
}

// Match is a scheduled or played match between two teams.
type Match struct {
	ID     int        `json:"id"`
	Left   Team       `json:"left"`
	Right  Team       `json:"right"`
	State  MatchState `json:"state"`
	Result Result     `json:"result"`
}

func lookupName[T comparable](names map[T]string, raw string) (T, bool) {
	want := strings.ToUpper(strings.TrimSpace(raw))
	for v, name := range names {
		if name == want {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func (s MatchState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (r Result) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
