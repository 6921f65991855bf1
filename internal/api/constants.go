package api

import "time"

const (
	defaultBaseURL     = "http://localhost:4444"
	defaultHTTPTimeout = 10 * time.Second
	maxBodyBytes       = 1 << 20
	maxErrorExcerpt    = 512

	pathServerVersion = "/"
	pathLeftTeamID    = "/match/leftTeamId"
	pathRightTeamID   = "/match/rightTeamId"
	pathTeam          = "/teams/team"
	pathSwitchTVs     = "/overlay/switchTVs"
	pathMatchLength   = "/defaultMatchLength"
	pathMatchScore    = "/score/matchScore"
	pathOverlayStream = "/overlay/stream"
	pathTimeStream    = "/stream/time"
)
