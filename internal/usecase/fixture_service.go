package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fpltools/fpl-mcp/internal/domain/fpl"
	"github.com/fpltools/fpl-mcp/internal/platform/logging"
)

const (
	defaultFixtureWindow   = 5
	defaultGameweekWindow  = 5
	positionAnalysisTeams  = 3
	fallbackDifficulty     = 3
	difficultyExcellentMax = 2
	difficultyGoodMax      = 3
	difficultyAverageMax   = 4
)

type FixtureService struct {
	catalog CatalogProvider
	logger  *logging.Logger
}

func NewFixtureService(catalog CatalogProvider, logger *logging.Logger) *FixtureService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FixtureService{catalog: catalog, logger: logger}
}

type FixtureView struct {
	Gameweek   *int   `json:"gameweek"`
	Opponent   string `json:"opponent"`
	Location   string `json:"location"`
	Difficulty int    `json:"difficulty"`
	Kickoff    string `json:"kickoff,omitempty"`
}

type FixtureRunSummary struct {
	AverageDifficulty float64 `json:"average_difficulty"`
	Rating            string  `json:"rating"`
}

type PlayerFixturesResult struct {
	Player   EntityRef         `json:"player"`
	Fixtures []FixtureView     `json:"fixtures"`
	Summary  FixtureRunSummary `json:"summary"`
}

type EntityRef struct {
	Type string `json:"type,omitempty"`
	Name string `json:"name"`
	Team string `json:"team,omitempty"`
}

// AnalyzePlayerFixtures rates the player's next unfinished fixtures. The
// difficulty seen is always the player's own side of the fixture.
func (s *FixtureService) AnalyzePlayerFixtures(ctx context.Context, playerName string, numFixtures int) (PlayerFixturesResult, error) {
	ctx, span := startUsecaseSpan(ctx, "FixtureService.AnalyzePlayerFixtures")
	defer span.End()

	if strings.TrimSpace(playerName) == "" {
		return PlayerFixturesResult{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}
	if numFixtures <= 0 {
		numFixtures = defaultFixtureWindow
	}

	bootstrap, fixtures, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return PlayerFixturesResult{}, err
	}

	player, ok := findPlayer(bootstrap.Elements, playerName)
	if !ok {
		return PlayerFixturesResult{}, fmt.Errorf("%w: player not found: %s", ErrNotFound, playerName)
	}
	teams := bootstrap.TeamsByID()

	upcoming := upcomingFixturesForTeam(fixtures, player.TeamID, numFixtures)
	views := make([]FixtureView, 0, len(upcoming))
	for _, f := range upcoming {
		view := fixtureViewFor(f, player.TeamID, teams)
		view.Kickoff = f.KickoffTime
		views = append(views, view)
	}

	avg := averageDifficulty(upcoming, player.TeamID)
	return PlayerFixturesResult{
		Player: EntityRef{
			Name: player.WebName,
			Team: teams[player.TeamID].Name,
		},
		Fixtures: views,
		Summary: FixtureRunSummary{
			AverageDifficulty: avg,
			Rating:            difficultyRating(avg),
		},
	}, nil
}

type TeamFixtureRun struct {
	Team              string        `json:"team"`
	Fixtures          []FixtureView `json:"fixtures"`
	AverageDifficulty float64       `json:"average_difficulty"`
	Rating            string        `json:"rating"`
}

type FixtureAnalysisResult struct {
	Entity            EntityRef        `json:"entity"`
	Fixtures          []FixtureView    `json:"fixtures,omitempty"`
	AverageDifficulty float64          `json:"average_difficulty,omitempty"`
	Rating            string           `json:"rating,omitempty"`
	BestTeams         []TeamFixtureRun `json:"best_teams,omitempty"`
}

// AnalyzeFixtures rates the fixture run inside the gameweek window for a
// team, a player (via the player's team) or a whole position. For a
// position the best few teams by run difficulty are returned instead of a
// single run.
func (s *FixtureService) AnalyzeFixtures(ctx context.Context, entityType, entityName string, numGameweeks int) (FixtureAnalysisResult, error) {
	ctx, span := startUsecaseSpan(ctx, "FixtureService.AnalyzeFixtures")
	defer span.End()

	if numGameweeks <= 0 {
		numGameweeks = defaultGameweekWindow
	}

	bootstrap, fixtures, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return FixtureAnalysisResult{}, err
	}
	currentGW := bootstrap.CurrentGameweek()
	teams := bootstrap.TeamsByID()

	switch strings.ToLower(strings.TrimSpace(entityType)) {
	case "team", "":
		team, ok := findTeam(bootstrap.Teams, entityName)
		if !ok {
			return FixtureAnalysisResult{}, fmt.Errorf("%w: team not found: %s", ErrNotFound, entityName)
		}
		run := buildTeamRun(fixtures, team, teams, currentGW, numGameweeks)
		return FixtureAnalysisResult{
			Entity:            EntityRef{Type: "team", Name: team.Name},
			Fixtures:          run.Fixtures,
			AverageDifficulty: run.AverageDifficulty,
			Rating:            run.Rating,
		}, nil

	case "player":
		player, ok := findPlayer(bootstrap.Elements, entityName)
		if !ok {
			return FixtureAnalysisResult{}, fmt.Errorf("%w: player not found: %s", ErrNotFound, entityName)
		}
		team := teams[player.TeamID]
		run := buildTeamRun(fixtures, team, teams, currentGW, numGameweeks)
		return FixtureAnalysisResult{
			Entity:            EntityRef{Type: "player", Name: player.WebName, Team: team.Name},
			Fixtures:          run.Fixtures,
			AverageDifficulty: run.AverageDifficulty,
			Rating:            run.Rating,
		}, nil

	case "position":
		position := fpl.NormalizePosition(entityName)
		if fpl.PositionIndex(position) < 0 {
			return FixtureAnalysisResult{}, fmt.Errorf("%w: unknown position %q", ErrInvalidInput, entityName)
		}
		runs := make([]TeamFixtureRun, 0, len(bootstrap.Teams))
		for _, team := range bootstrap.Teams {
			run := buildTeamRun(fixtures, team, teams, currentGW, numGameweeks)
			if len(run.Fixtures) == 0 {
				continue
			}
			runs = append(runs, run)
		}
		sort.SliceStable(runs, func(i, j int) bool {
			if runs[i].AverageDifficulty != runs[j].AverageDifficulty {
				return runs[i].AverageDifficulty < runs[j].AverageDifficulty
			}
			return runs[i].Team < runs[j].Team
		})
		if len(runs) > positionAnalysisTeams {
			runs = runs[:positionAnalysisTeams]
		}
		return FixtureAnalysisResult{
			Entity:    EntityRef{Type: "position", Name: position},
			BestTeams: runs,
		}, nil

	default:
		return FixtureAnalysisResult{}, fmt.Errorf("%w: entity type must be player, team or position", ErrInvalidInput)
	}
}

type GameweekInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Deadline string `json:"deadline,omitempty"`
	Finished bool   `json:"finished"`
}

type GameweekStatusResult struct {
	Current  *GameweekInfo `json:"current"`
	Next     *GameweekInfo `json:"next"`
	Previous *GameweekInfo `json:"previous"`
}

func (s *FixtureService) GameweekStatus(ctx context.Context) (GameweekStatusResult, error) {
	ctx, span := startUsecaseSpan(ctx, "FixtureService.GameweekStatus")
	defer span.End()

	bootstrap, err := s.catalog.Bootstrap(ctx)
	if err != nil {
		return GameweekStatusResult{}, err
	}

	out := GameweekStatusResult{}
	for _, e := range bootstrap.Events {
		info := GameweekInfo{ID: e.ID, Name: e.Name, Deadline: e.DeadlineTime, Finished: e.Finished}
		switch {
		case e.IsCurrent:
			current := info
			out.Current = &current
		case e.IsNext:
			next := info
			out.Next = &next
		case e.IsPrevious:
			previous := info
			out.Previous = &previous
		}
	}

	return out, nil
}

type GameweekTeams struct {
	Gameweek int      `json:"gameweek"`
	Teams    []string `json:"teams"`
	Count    int      `json:"count"`
}

type BlankGameweeksResult struct {
	BlankGameweeks []GameweekTeams `json:"blank_gameweeks"`
}

// BlankGameweeks lists, per upcoming gameweek in the window, the teams with
// no fixture scheduled. The window never reads past the final gameweek.
func (s *FixtureService) BlankGameweeks(ctx context.Context, numGameweeks int) (BlankGameweeksResult, error) {
	ctx, span := startUsecaseSpan(ctx, "FixtureService.BlankGameweeks")
	defer span.End()

	bootstrap, fixtures, err := s.snapshotWindow(ctx, &numGameweeks)
	if err != nil {
		return BlankGameweeksResult{}, err
	}

	out := BlankGameweeksResult{BlankGameweeks: []GameweekTeams{}}
	currentGW := bootstrap.CurrentGameweek()
	for gw := currentGW; gw < capGameweek(currentGW+numGameweeks); gw++ {
		playing := make(map[int]bool, len(bootstrap.Teams))
		for _, f := range fixtures {
			if f.InGameweek(gw) {
				playing[f.TeamH] = true
				playing[f.TeamA] = true
			}
		}

		var blank []string
		for _, team := range bootstrap.Teams {
			if !playing[team.ID] {
				blank = append(blank, team.Name)
			}
		}
		if len(blank) > 0 {
			out.BlankGameweeks = append(out.BlankGameweeks, GameweekTeams{
				Gameweek: gw,
				Teams:    blank,
				Count:    len(blank),
			})
		}
	}

	return out, nil
}

type DoubleGameweeksResult struct {
	DoubleGameweeks []GameweekTeams `json:"double_gameweeks"`
}

// DoubleGameweeks lists, per upcoming gameweek in the window, the teams
// with two or more fixtures.
func (s *FixtureService) DoubleGameweeks(ctx context.Context, numGameweeks int) (DoubleGameweeksResult, error) {
	ctx, span := startUsecaseSpan(ctx, "FixtureService.DoubleGameweeks")
	defer span.End()

	bootstrap, fixtures, err := s.snapshotWindow(ctx, &numGameweeks)
	if err != nil {
		return DoubleGameweeksResult{}, err
	}

	out := DoubleGameweeksResult{DoubleGameweeks: []GameweekTeams{}}
	currentGW := bootstrap.CurrentGameweek()
	for gw := currentGW; gw < capGameweek(currentGW+numGameweeks); gw++ {
		counts := make(map[int]int, len(bootstrap.Teams))
		for _, f := range fixtures {
			if f.InGameweek(gw) {
				counts[f.TeamH]++
				counts[f.TeamA]++
			}
		}

		var double []string
		for _, team := range bootstrap.Teams {
			if counts[team.ID] >= 2 {
				double = append(double, team.Name)
			}
		}
		if len(double) > 0 {
			out.DoubleGameweeks = append(out.DoubleGameweeks, GameweekTeams{
				Gameweek: gw,
				Teams:    double,
				Count:    len(double),
			})
		}
	}

	return out, nil
}

func (s *FixtureService) snapshotWindow(ctx context.Context, numGameweeks *int) (fpl.Bootstrap, []fpl.Fixture, error) {
	if *numGameweeks <= 0 {
		*numGameweeks = defaultGameweekWindow
	}
	return s.catalog.Snapshot(ctx)
}

// capGameweek clamps a window boundary to one past the final gameweek.
func capGameweek(boundary int) int {
	if boundary > fpl.FinalGameweek+1 {
		return fpl.FinalGameweek + 1
	}
	return boundary
}

func buildTeamRun(fixtures []fpl.Fixture, team fpl.Team, teams map[int]fpl.Team, currentGW, numGameweeks int) TeamFixtureRun {
	window := make([]fpl.Fixture, 0, numGameweeks)
	for _, f := range fixtures {
		if !f.Involves(team.ID) || f.Event == nil {
			continue
		}
		if *f.Event < currentGW || *f.Event > currentGW+numGameweeks-1 {
			continue
		}
		window = append(window, f)
	}

	views := make([]FixtureView, 0, len(window))
	for _, f := range window {
		views = append(views, fixtureViewFor(f, team.ID, teams))
	}

	avg := averageDifficulty(window, team.ID)
	return TeamFixtureRun{
		Team:              team.Name,
		Fixtures:          views,
		AverageDifficulty: avg,
		Rating:            difficultyRating(avg),
	}
}

func fixtureViewFor(f fpl.Fixture, teamID int, teams map[int]fpl.Team) FixtureView {
	opponentID, difficulty, home := f.SideFor(teamID)
	location := "Away"
	if home {
		location = "Home"
	}
	return FixtureView{
		Gameweek:   f.Event,
		Opponent:   teams[opponentID].Name,
		Location:   location,
		Difficulty: difficulty,
	}
}

// upcomingFixturesForTeam keeps the team's first n unfinished fixtures in
// upstream order, which is kickoff order.
func upcomingFixturesForTeam(fixtures []fpl.Fixture, teamID, n int) []fpl.Fixture {
	out := make([]fpl.Fixture, 0, n)
	for _, f := range fixtures {
		if f.Finished || !f.Involves(teamID) {
			continue
		}
		out = append(out, f)
		if len(out) == n {
			break
		}
	}
	return out
}

// averageDifficulty falls back to the neutral rating for an empty run.
func averageDifficulty(fixtures []fpl.Fixture, teamID int) float64 {
	if len(fixtures) == 0 {
		return fallbackDifficulty
	}
	total := 0
	for _, f := range fixtures {
		_, difficulty, _ := f.SideFor(teamID)
		total += difficulty
	}
	return roundTo(float64(total)/float64(len(fixtures)), 2)
}

func difficultyRating(avg float64) string {
	switch {
	case avg <= difficultyExcellentMax:
		return "Excellent"
	case avg <= difficultyGoodMax:
		return "Good"
	case avg <= difficultyAverageMax:
		return "Average"
	default:
		return "Difficult"
	}
}

func findTeam(teams []fpl.Team, name string) (fpl.Team, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return fpl.Team{}, false
	}
	for _, t := range teams {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			return t, true
		}
	}
	for _, t := range teams {
		if strings.EqualFold(t.ShortName, needle) {
			return t, true
		}
	}
	return fpl.Team{}, false
}
