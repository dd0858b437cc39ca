package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fpltools/fpl-mcp/internal/domain/fpl"
	"github.com/fpltools/fpl-mcp/internal/platform/logging"
)

const (
	standingsLimit       = 25
	defaultHistoryWindow = 5
)

type EntryService struct {
	catalog CatalogProvider
	auth    AuthenticatedProvider
	logger  *logging.Logger
}

func NewEntryService(catalog CatalogProvider, auth AuthenticatedProvider, logger *logging.Logger) *EntryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &EntryService{catalog: catalog, auth: auth, logger: logger}
}

type MyTeamResult struct {
	TeamName       string  `json:"team_name"`
	Manager        string  `json:"manager"`
	OverallRank    int     `json:"overall_rank"`
	OverallPoints  int     `json:"overall_points"`
	GameweekPoints int     `json:"gameweek_points"`
	TeamValue      float64 `json:"team_value"`
	Bank           float64 `json:"bank"`
	TotalTransfers int     `json:"total_transfers"`
	TeamID         int     `json:"team_id"`
}

// MyTeamDetails reads the configured manager's entry over the
// authenticated session.
func (s *EntryService) MyTeamDetails(ctx context.Context) (MyTeamResult, error) {
	ctx, span := startUsecaseSpan(ctx, "EntryService.MyTeamDetails")
	defer span.End()

	if !s.auth.Configured() {
		return MyTeamResult{}, fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(s.auth.MissingCredentials(), ", "))
	}

	entry, err := s.auth.Entry(ctx)
	if err != nil {
		return MyTeamResult{}, err
	}
	if entry.Name == "" {
		return MyTeamResult{}, fmt.Errorf("%w: empty entry payload, check that team id %d is correct", ErrUpstream, s.auth.TeamID())
	}

	return MyTeamResult{
		TeamName:       entry.Name,
		Manager:        entry.ManagerName(),
		OverallRank:    entry.SummaryOverallRank,
		OverallPoints:  entry.SummaryOverallPoints,
		GameweekPoints: entry.SummaryEventPoints,
		TeamValue:      fpl.Money(entry.LastDeadlineValue),
		Bank:           fpl.Money(entry.LastDeadlineBank),
		TotalTransfers: entry.TotalTransfers,
		TeamID:         s.auth.TeamID(),
	}, nil
}

type SquadPlayer struct {
	Name          string `json:"name"`
	Position      string `json:"position"`
	Multiplier    int    `json:"multiplier"`
	IsCaptain     bool   `json:"is_captain,omitempty"`
	IsViceCaptain bool   `json:"is_vice_captain,omitempty"`
}

type TeamResult struct {
	TeamName       string        `json:"team_name"`
	Manager        string        `json:"manager"`
	OverallRank    int           `json:"overall_rank"`
	Gameweek       int           `json:"gameweek"`
	GameweekPoints int           `json:"gameweek_points"`
	TotalPlayers   int           `json:"total_players"`
	Captain        string        `json:"captain,omitempty"`
	ViceCaptain    string        `json:"vice_captain,omitempty"`
	Starting       []SquadPlayer `json:"starting"`
	Bench          []SquadPlayer `json:"bench"`
}

// GetTeam reads any entry's profile and its squad for the gameweek
// (current when zero). Picks ride the configured session.
func (s *EntryService) GetTeam(ctx context.Context, teamID, gameweek int) (TeamResult, error) {
	ctx, span := startUsecaseSpan(ctx, "EntryService.GetTeam")
	defer span.End()

	if teamID <= 0 {
		return TeamResult{}, fmt.Errorf("%w: team id must be greater than zero", ErrInvalidInput)
	}
	if gameweek < 0 || gameweek > fpl.FinalGameweek {
		return TeamResult{}, fmt.Errorf("%w: gameweek must be between 1 and %d", ErrInvalidInput, fpl.FinalGameweek)
	}

	entry, err := s.catalog.Entry(ctx, teamID)
	if err != nil {
		return TeamResult{}, err
	}

	bootstrap, err := s.catalog.Bootstrap(ctx)
	if err != nil {
		return TeamResult{}, err
	}
	if gameweek == 0 {
		gameweek = bootstrap.CurrentGameweek()
	}

	picks, err := s.auth.Picks(ctx, teamID, gameweek)
	if err != nil {
		return TeamResult{}, err
	}

	playersByID := make(map[int]fpl.Player, len(bootstrap.Elements))
	for _, p := range bootstrap.Elements {
		playersByID[p.ID] = p
	}

	out := TeamResult{
		TeamName:       entry.Name,
		Manager:        entry.ManagerName(),
		OverallRank:    entry.SummaryOverallRank,
		Gameweek:       gameweek,
		GameweekPoints: picks.EntryHistory.Points,
		TotalPlayers:   len(picks.Picks),
		Starting:       []SquadPlayer{},
		Bench:          []SquadPlayer{},
	}
	for _, pick := range picks.Picks {
		player := playersByID[pick.Element]
		squadPlayer := SquadPlayer{
			Name:          player.WebName,
			Position:      fpl.PositionCode(player.ElementType),
			Multiplier:    pick.Multiplier,
			IsCaptain:     pick.IsCaptain,
			IsViceCaptain: pick.IsViceCaptain,
		}
		if pick.IsCaptain {
			out.Captain = player.WebName
		}
		if pick.IsViceCaptain {
			out.ViceCaptain = player.WebName
		}
		if pick.Multiplier > 0 {
			out.Starting = append(out.Starting, squadPlayer)
		} else {
			out.Bench = append(out.Bench, squadPlayer)
		}
	}

	return out, nil
}

type ManagerInfoResult struct {
	ManagerName   string `json:"manager_name"`
	TeamName      string `json:"team_name"`
	Region        string `json:"region"`
	StartedEvent  int    `json:"started_event"`
	OverallRank   int    `json:"overall_rank"`
	OverallPoints int    `json:"overall_points"`
}

// ManagerInfo reads a manager's public profile. A zero team id falls back
// to the configured manager.
func (s *EntryService) ManagerInfo(ctx context.Context, teamID int) (ManagerInfoResult, error) {
	ctx, span := startUsecaseSpan(ctx, "EntryService.ManagerInfo")
	defer span.End()

	teamID, err := s.resolveTeamID(teamID)
	if err != nil {
		return ManagerInfoResult{}, err
	}

	entry, err := s.catalog.Entry(ctx, teamID)
	if err != nil {
		return ManagerInfoResult{}, err
	}

	return ManagerInfoResult{
		ManagerName:   entry.ManagerName(),
		TeamName:      entry.Name,
		Region:        entry.PlayerRegionName,
		StartedEvent:  entry.StartedEvent,
		OverallRank:   entry.SummaryOverallRank,
		OverallPoints: entry.SummaryOverallPoints,
	}, nil
}

type HistoryGameweek struct {
	Gameweek    int     `json:"gameweek"`
	Points      int     `json:"points"`
	TotalPoints int     `json:"total_points"`
	Rank        int     `json:"rank"`
	Value       float64 `json:"value"`
	Bank        float64 `json:"bank"`
}

type TeamHistoryResult struct {
	TeamID  int               `json:"team_id"`
	History []HistoryGameweek `json:"history"`
}

// TeamHistory returns the most recent gameweeks of a team's season record,
// oldest first. A zero team id falls back to the configured manager.
func (s *EntryService) TeamHistory(ctx context.Context, teamID, numGameweeks int) (TeamHistoryResult, error) {
	ctx, span := startUsecaseSpan(ctx, "EntryService.TeamHistory")
	defer span.End()

	teamID, err := s.resolveTeamID(teamID)
	if err != nil {
		return TeamHistoryResult{}, err
	}
	if numGameweeks <= 0 {
		numGameweeks = defaultHistoryWindow
	}

	history, err := s.auth.History(ctx, teamID)
	if err != nil {
		return TeamHistoryResult{}, err
	}

	rows := history.Current
	if len(rows) > numGameweeks {
		rows = rows[len(rows)-numGameweeks:]
	}

	out := TeamHistoryResult{TeamID: teamID, History: make([]HistoryGameweek, 0, len(rows))}
	for _, row := range rows {
		out.History = append(out.History, HistoryGameweek{
			Gameweek:    row.Event,
			Points:      row.Points,
			TotalPoints: row.TotalPoints,
			Rank:        row.OverallRank,
			Value:       fpl.Money(row.Value),
			Bank:        fpl.Money(row.Bank),
		})
	}

	return out, nil
}

type StandingRow struct {
	Rank        int    `json:"rank"`
	TeamName    string `json:"team_name"`
	Manager     string `json:"manager"`
	TotalPoints int    `json:"total_points"`
}

type LeagueStandingsResult struct {
	LeagueName string        `json:"league_name"`
	TotalTeams int           `json:"total_teams"`
	Standings  []StandingRow `json:"standings"`
}

// LeagueStandings returns the top of a classic league table.
func (s *EntryService) LeagueStandings(ctx context.Context, leagueID int) (LeagueStandingsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "EntryService.LeagueStandings")
	defer span.End()

	if leagueID <= 0 {
		return LeagueStandingsResult{}, fmt.Errorf("%w: league id must be greater than zero", ErrInvalidInput)
	}

	league, err := s.catalog.LeagueStandings(ctx, leagueID)
	if err != nil {
		return LeagueStandingsResult{}, err
	}

	rows := league.Standings.Results
	out := LeagueStandingsResult{
		LeagueName: league.League.Name,
		TotalTeams: len(rows),
		Standings:  make([]StandingRow, 0, standingsLimit),
	}
	for i, row := range rows {
		if i == standingsLimit {
			break
		}
		out.Standings = append(out.Standings, StandingRow{
			Rank:        row.Rank,
			TeamName:    row.EntryName,
			Manager:     row.PlayerName,
			TotalPoints: row.Total,
		})
	}

	return out, nil
}

type AuthStatusResult struct {
	Authenticated          bool     `json:"authenticated"`
	Message                string   `json:"message,omitempty"`
	Missing                []string `json:"missing,omitempty"`
	Error                  string   `json:"error,omitempty"`
	CredentialsConfigured  bool     `json:"credentials_configured"`
	TeamID                 int      `json:"team_id,omitempty"`
	TeamName               string   `json:"team_name,omitempty"`
	Manager                string   `json:"manager,omitempty"`
	OverallRank            int      `json:"overall_rank,omitempty"`
	OverallPoints          int      `json:"overall_points,omitempty"`
}

// CheckAuthentication probes the authenticated session with a live entry
// read. Failures are reported in the result, not as errors: the status is
// the answer.
func (s *EntryService) CheckAuthentication(ctx context.Context) AuthStatusResult {
	ctx, span := startUsecaseSpan(ctx, "EntryService.CheckAuthentication")
	defer span.End()

	if !s.auth.Configured() {
		return AuthStatusResult{
			Authenticated: false,
			Message:       "credentials not fully configured",
			Missing:       s.auth.MissingCredentials(),
		}
	}

	entry, err := s.auth.Entry(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "authentication check failed", "team_id", s.auth.TeamID(), "error", err)
		return AuthStatusResult{
			Authenticated:         false,
			Error:                 err.Error(),
			CredentialsConfigured: true,
			TeamID:                s.auth.TeamID(),
		}
	}

	return AuthStatusResult{
		Authenticated:         true,
		CredentialsConfigured: true,
		TeamID:                s.auth.TeamID(),
		TeamName:              entry.Name,
		Manager:               entry.ManagerName(),
		OverallRank:           entry.SummaryOverallRank,
		OverallPoints:         entry.SummaryOverallPoints,
	}
}

func (s *EntryService) resolveTeamID(teamID int) (int, error) {
	if teamID > 0 {
		return teamID, nil
	}
	if s.auth.TeamID() > 0 {
		return s.auth.TeamID(), nil
	}
	return 0, fmt.Errorf("%w: no team id provided and none configured", ErrInvalidInput)
}
