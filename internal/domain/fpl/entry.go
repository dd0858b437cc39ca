package fpl

// Entry is the public (or authenticated) view of a manager's account.
type Entry struct {
	ID                   int    `json:"id"`
	Name                 string `json:"name"`
	PlayerFirstName      string `json:"player_first_name"`
	PlayerLastName       string `json:"player_last_name"`
	PlayerRegionName     string `json:"player_region_name"`
	StartedEvent         int    `json:"started_event"`
	SummaryOverallRank   int    `json:"summary_overall_rank"`
	SummaryOverallPoints int    `json:"summary_overall_points"`
	SummaryEventPoints   int    `json:"summary_event_points"`
	LastDeadlineValue    int    `json:"last_deadline_value"`
	LastDeadlineBank     int    `json:"last_deadline_bank"`
	TotalTransfers       int    `json:"total_transfers"`
}

// ManagerName is "first last" with surrounding whitespace collapsed.
func (e Entry) ManagerName() string {
	name := e.PlayerFirstName
	if e.PlayerLastName != "" {
		if name != "" {
			name += " "
		}
		name += e.PlayerLastName
	}
	return name
}

// Picks is one gameweek's squad selection of 15 players.
type Picks struct {
	Picks        []Pick       `json:"picks"`
	EntryHistory EntryHistory `json:"entry_history"`
}

type Pick struct {
	Element       int  `json:"element"`
	Position      int  `json:"position"`
	Multiplier    int  `json:"multiplier"`
	IsCaptain     bool `json:"is_captain"`
	IsViceCaptain bool `json:"is_vice_captain"`
}

type EntryHistory struct {
	Event              int `json:"event"`
	Points             int `json:"points"`
	TotalPoints        int `json:"total_points"`
	OverallRank        int `json:"overall_rank"`
	Bank               int `json:"bank"`
	Value              int `json:"value"`
	EventTransfersCost int `json:"event_transfers_cost"`
}

// History is a manager's season-by-gameweek record.
type History struct {
	Current []HistoryRow `json:"current"`
}

type HistoryRow struct {
	Event       int `json:"event"`
	Points      int `json:"points"`
	TotalPoints int `json:"total_points"`
	OverallRank int `json:"overall_rank"`
	Value       int `json:"value"`
	Bank        int `json:"bank"`
}
