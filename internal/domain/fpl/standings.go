package fpl

// LeagueStandings is the classic-league standings payload.
type LeagueStandings struct {
	League    LeagueInfo    `json:"league"`
	Standings StandingsPage `json:"standings"`
}

type LeagueInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type StandingsPage struct {
	Results []StandingRow `json:"results"`
}

type StandingRow struct {
	Rank       int    `json:"rank"`
	Entry      int    `json:"entry"`
	EntryName  string `json:"entry_name"`
	PlayerName string `json:"player_name"`
	Total      int    `json:"total"`
}
