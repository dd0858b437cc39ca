package fpl

// Fixture is one scheduled match. Event is nil for fixtures not yet
// assigned to a gameweek (postponed/unscheduled).
type Fixture struct {
	ID              int    `json:"id"`
	Event           *int   `json:"event"`
	TeamH           int    `json:"team_h"`
	TeamA           int    `json:"team_a"`
	TeamHDifficulty int    `json:"team_h_difficulty"`
	TeamADifficulty int    `json:"team_a_difficulty"`
	KickoffTime     string `json:"kickoff_time"`
	Finished        bool   `json:"finished"`
}

// Involves reports whether the team plays in this fixture.
func (f Fixture) Involves(teamID int) bool {
	return f.TeamH == teamID || f.TeamA == teamID
}

// SideFor returns the opponent id and the difficulty rating seen by teamID.
// The rating is side-specific: the home side reads team_h_difficulty.
func (f Fixture) SideFor(teamID int) (opponentID, difficulty int, home bool) {
	if f.TeamH == teamID {
		return f.TeamA, f.TeamHDifficulty, true
	}
	return f.TeamH, f.TeamADifficulty, false
}

// InGameweek reports whether the fixture is scheduled in the given gameweek.
func (f Fixture) InGameweek(gw int) bool {
	return f.Event != nil && *f.Event == gw
}
