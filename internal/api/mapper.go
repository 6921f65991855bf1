package api

import (
	"fmt"

	"github.com/preston-bernstein/match-overlay/internal/domain"
)

func mapTeam(t teamResponse) (domain.Team, error) {
	bright, err := domain.ParseHexColor(t.ColorBright)
	if err != nil {
		return domain.Team{}, fmt.Errorf("team %d colorBright: %w", t.ID, err)
	}
	dark, err := domain.ParseHexColor(t.ColorDark)
	if err != nil {
		return domain.Team{}, fmt.Errorf("team %d colorDark: %w", t.ID, err)
	}
	return domain.NewTeam(t.ID, t.Name, bright, dark, t.Members), nil
}

func mapScore(s scoreResponse) domain.Score {
	return domain.Score{Left: s.Left, Right: s.Right}
}
