package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/fpltools/fpl-mcp/internal/domain/fpl"
	"github.com/fpltools/fpl-mcp/internal/platform/logging"
)

const (
	searchResultLimit   = 10
	analyzeDefaultLimit = 20
	analyzeMaxLimit     = 100
	compareMinPlayers   = 2
	compareMaxPlayers   = 5
)

// compareMetrics is the default head-to-head metric set, in presentation
// order. now_cost is the only metric where the lower value wins.
var compareMetrics = []string{
	"total_points",
	"form",
	"goals_scored",
	"assists",
	"bonus",
	"now_cost",
	"points_per_game",
	"expected_goals",
	"expected_assists",
	"minutes",
}

type PlayerService struct {
	catalog CatalogProvider
	logger  *logging.Logger
}

func NewPlayerService(catalog CatalogProvider, logger *logging.Logger) *PlayerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerService{catalog: catalog, logger: logger}
}

type PlayerSummary struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	WebName         string  `json:"web_name"`
	Team            string  `json:"team"`
	Position        string  `json:"position"`
	Price           float64 `json:"price"`
	TotalPoints     int     `json:"total_points"`
	Form            string  `json:"form"`
	PointsPerGame   string  `json:"points_per_game"`
	Goals           int     `json:"goals"`
	Assists         int     `json:"assists"`
	Bonus           int     `json:"bonus"`
	SelectedBy      string  `json:"selected_by"`
	ExpectedGoals   string  `json:"expected_goals"`
	ExpectedAssists string  `json:"expected_assists"`
}

type SearchPlayersResult struct {
	Found   int             `json:"found"`
	Players []PlayerSummary `json:"players"`
}

// SearchPlayers matches the query against web names and full names,
// case-insensitively. Found counts every match; Players carries the first
// ten in catalogue order.
func (s *PlayerService) SearchPlayers(ctx context.Context, query string) (SearchPlayersResult, error) {
	ctx, span := startUsecaseSpan(ctx, "PlayerService.SearchPlayers")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return SearchPlayersResult{}, fmt.Errorf("%w: search query is required", ErrInvalidInput)
	}

	bootstrap, err := s.catalog.Bootstrap(ctx)
	if err != nil {
		return SearchPlayersResult{}, err
	}
	teams := bootstrap.TeamsByID()

	needle := strings.ToLower(query)
	matches := make([]fpl.Player, 0, searchResultLimit)
	found := 0
	for _, p := range bootstrap.Elements {
		if !strings.Contains(strings.ToLower(p.WebName), needle) &&
			!strings.Contains(strings.ToLower(p.FullName()), needle) {
			continue
		}
		found++
		if len(matches) < searchResultLimit {
			matches = append(matches, p)
		}
	}

	if found == 0 {
		return SearchPlayersResult{}, fmt.Errorf("%w: no players found for %q", ErrNotFound, query)
	}

	players := make([]PlayerSummary, 0, len(matches))
	for _, p := range matches {
		players = append(players, PlayerSummary{
			ID:              p.ID,
			Name:            p.FullName(),
			WebName:         p.WebName,
			Team:            teams[p.TeamID].Name,
			Position:        fpl.PositionCode(p.ElementType),
			Price:           p.Price(),
			TotalPoints:     p.TotalPoints,
			Form:            p.Form,
			PointsPerGame:   p.PointsPerGame,
			Goals:           p.GoalsScored,
			Assists:         p.Assists,
			Bonus:           p.Bonus,
			SelectedBy:      p.SelectedByPercent + "%",
			ExpectedGoals:   p.ExpectedGoals,
			ExpectedAssists: p.ExpectedAssists,
		})
	}

	return SearchPlayersResult{Found: found, Players: players}, nil
}

type CompareInput struct {
	Names           []string `validate:"required,min=2,max=5,dive,required"`
	Metrics         []string
	IncludeFixtures bool
}

type MetricValue struct {
	Metric string `json:"metric"`
	Value  any    `json:"value"`
}

type ComparisonPlayer struct {
	Name    string        `json:"name"`
	Team    string        `json:"team"`
	Metrics []MetricValue `json:"metrics"`
}

type MetricWinner struct {
	Metric string `json:"metric"`
	Winner string `json:"winner"`
}

type MetricTally struct {
	Name       string `json:"name"`
	MetricsWon int    `json:"metrics_won"`
}

type ComparisonVerdict struct {
	Winner string        `json:"winner"`
	Tally  []MetricTally `json:"tally"`
}

type FixtureOutlook struct {
	Name              string  `json:"name"`
	FixtureCount      int     `json:"fixture_count"`
	AverageDifficulty float64 `json:"average_difficulty"`
	Rating            string  `json:"rating"`
}

type ComparisonResult struct {
	Players  []ComparisonPlayer `json:"players"`
	Winners  []MetricWinner     `json:"winners"`
	Verdict  ComparisonVerdict  `json:"verdict"`
	Fixtures []FixtureOutlook   `json:"fixtures,omitempty"`
}

// ComparePlayers compares two to five players across the requested metrics
// (the default set when none are given). Each metric names its winner or a
// tie; the verdict tallies metrics won per player in input order.
func (s *PlayerService) ComparePlayers(ctx context.Context, in CompareInput) (ComparisonResult, error) {
	ctx, span := startUsecaseSpan(ctx, "PlayerService.ComparePlayers")
	defer span.End()

	if len(in.Names) < compareMinPlayers || len(in.Names) > compareMaxPlayers {
		return ComparisonResult{}, fmt.Errorf("%w: between %d and %d player names are required", ErrInvalidInput, compareMinPlayers, compareMaxPlayers)
	}

	metrics := in.Metrics
	if len(metrics) == 0 {
		metrics = compareMetrics
	}
	for _, metric := range metrics {
		if !isKnownMetric(metric) {
			return ComparisonResult{}, fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, metric)
		}
	}

	var (
		bootstrap fpl.Bootstrap
		fixtures  []fpl.Fixture
		err       error
	)
	if in.IncludeFixtures {
		bootstrap, fixtures, err = s.catalog.Snapshot(ctx)
	} else {
		bootstrap, err = s.catalog.Bootstrap(ctx)
	}
	if err != nil {
		return ComparisonResult{}, err
	}
	teams := bootstrap.TeamsByID()

	players := make([]fpl.Player, 0, len(in.Names))
	for _, name := range in.Names {
		player, ok := findPlayer(bootstrap.Elements, name)
		if !ok {
			return ComparisonResult{}, fmt.Errorf("%w: player not found: %s", ErrNotFound, name)
		}
		players = append(players, player)
	}

	out := ComparisonResult{
		Players: make([]ComparisonPlayer, 0, len(players)),
		Winners: make([]MetricWinner, 0, len(metrics)),
	}
	for _, p := range players {
		values := make([]MetricValue, 0, len(metrics))
		for _, metric := range metrics {
			values = append(values, MetricValue{Metric: metric, Value: metricDisplay(p, metric)})
		}
		out.Players = append(out.Players, ComparisonPlayer{
			Name:    p.WebName,
			Team:    teams[p.TeamID].Name,
			Metrics: values,
		})
	}

	wins := make([]int, len(players))
	for _, metric := range metrics {
		winner := pickMetricWinner(players, metric)
		label := "tie"
		if winner >= 0 {
			label = players[winner].WebName
			wins[winner]++
		}
		out.Winners = append(out.Winners, MetricWinner{Metric: metric, Winner: label})
	}

	out.Verdict = buildVerdict(players, wins)

	if in.IncludeFixtures {
		out.Fixtures = make([]FixtureOutlook, 0, len(players))
		for _, p := range players {
			upcoming := upcomingFixturesForTeam(fixtures, p.TeamID, defaultFixtureWindow)
			avg := averageDifficulty(upcoming, p.TeamID)
			out.Fixtures = append(out.Fixtures, FixtureOutlook{
				Name:              p.WebName,
				FixtureCount:      len(upcoming),
				AverageDifficulty: avg,
				Rating:            difficultyRating(avg),
			})
		}
	}

	return out, nil
}

func buildVerdict(players []fpl.Player, wins []int) ComparisonVerdict {
	verdict := ComparisonVerdict{Tally: make([]MetricTally, 0, len(players))}
	best, bestCount, tied := -1, -1, false
	for i, p := range players {
		verdict.Tally = append(verdict.Tally, MetricTally{Name: p.WebName, MetricsWon: wins[i]})
		switch {
		case wins[i] > bestCount:
			best, bestCount, tied = i, wins[i], false
		case wins[i] == bestCount:
			tied = true
		}
	}
	if tied || best < 0 {
		verdict.Winner = "tie"
	} else {
		verdict.Winner = players[best].WebName
	}
	return verdict
}

// pickMetricWinner returns the index of the winning player, or -1 on a tie.
func pickMetricWinner(players []fpl.Player, metric string) int {
	lowerWins := metric == "now_cost"
	best, tie := 0, false
	bestValue := metricValue(players[0], metric)
	for i := 1; i < len(players); i++ {
		value := metricValue(players[i], metric)
		switch {
		case value == bestValue:
			tie = true
		case lowerWins && value < bestValue, !lowerWins && value > bestValue:
			best, bestValue, tie = i, value, false
		}
	}
	if tie {
		return -1
	}
	return best
}

func isKnownMetric(metric string) bool {
	for _, known := range compareMetrics {
		if metric == known {
			return true
		}
	}
	return false
}

func metricValue(p fpl.Player, metric string) float64 {
	switch metric {
	case "total_points":
		return float64(p.TotalPoints)
	case "form":
		return fpl.ParseDecimal(p.Form)
	case "goals_scored":
		return float64(p.GoalsScored)
	case "assists":
		return float64(p.Assists)
	case "bonus":
		return float64(p.Bonus)
	case "now_cost":
		return float64(p.NowCost)
	case "points_per_game":
		return fpl.ParseDecimal(p.PointsPerGame)
	case "expected_goals":
		return fpl.ParseDecimal(p.ExpectedGoals)
	case "expected_assists":
		return fpl.ParseDecimal(p.ExpectedAssists)
	case "minutes":
		return float64(p.Minutes)
	default:
		return 0
	}
}

func metricDisplay(p fpl.Player, metric string) any {
	switch metric {
	case "total_points":
		return p.TotalPoints
	case "form":
		return p.Form
	case "goals_scored":
		return p.GoalsScored
	case "assists":
		return p.Assists
	case "bonus":
		return p.Bonus
	case "now_cost":
		return p.Price()
	case "points_per_game":
		return p.PointsPerGame
	case "expected_goals":
		return p.ExpectedGoals
	case "expected_assists":
		return p.ExpectedAssists
	case "minutes":
		return p.Minutes
	default:
		return nil
	}
}

// findPlayer matches first on web name, then on full name.
func findPlayer(players []fpl.Player, name string) (fpl.Player, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return fpl.Player{}, false
	}
	for _, p := range players {
		if strings.Contains(strings.ToLower(p.WebName), needle) {
			return p, true
		}
	}
	for _, p := range players {
		if strings.Contains(strings.ToLower(p.FullName()), needle) {
			return p, true
		}
	}
	return fpl.Player{}, false
}

type AnalyzeInput struct {
	Position     string
	Team         string
	MinPrice     float64
	MaxPrice     float64
	MinPoints    int
	MinForm      float64
	MaxOwnership float64
	SortBy       string
	Limit        int
}

type AnalyzedPlayer struct {
	Name      string  `json:"name"`
	Team      string  `json:"team"`
	Position  string  `json:"position"`
	Price     float64 `json:"price"`
	Points    int     `json:"points"`
	Form      string  `json:"form"`
	Ownership string  `json:"ownership"`
	Goals     int     `json:"goals"`
	Assists   int     `json:"assists"`
}

type AppliedFilters struct {
	Position     string  `json:"position,omitempty"`
	Team         string  `json:"team,omitempty"`
	MinPrice     float64 `json:"min_price,omitempty"`
	MaxPrice     float64 `json:"max_price,omitempty"`
	MinPoints    int     `json:"min_points,omitempty"`
	MinForm      float64 `json:"min_form,omitempty"`
	MaxOwnership float64 `json:"max_ownership,omitempty"`
}

type PositionCount struct {
	Position string `json:"position"`
	Count    int    `json:"count"`
}

type TeamCount struct {
	Team  string `json:"team"`
	Count int    `json:"count"`
}

type AnalyzeSummary struct {
	AveragePrice  float64         `json:"average_price"`
	AveragePoints float64         `json:"average_points"`
	Positions     []PositionCount `json:"positions"`
	TopTeams      []TeamCount     `json:"top_teams"`
}

type AnalyzeResult struct {
	TotalFound int              `json:"total_found"`
	Filters    AppliedFilters   `json:"filters_applied"`
	Players    []AnalyzedPlayer `json:"players"`
	Summary    AnalyzeSummary   `json:"summary"`
}

// AnalyzePlayers applies every given filter conjunctively, sorts the
// survivors by the requested metric (descending, total points when the
// metric is unknown) and truncates to the limit. The summary always
// describes the full filtered set, not the truncated page.
func (s *PlayerService) AnalyzePlayers(ctx context.Context, in AnalyzeInput) (AnalyzeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "PlayerService.AnalyzePlayers")
	defer span.End()

	if in.Limit < 0 {
		return AnalyzeResult{}, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}
	limit := in.Limit
	if limit == 0 {
		limit = analyzeDefaultLimit
	}
	if limit > analyzeMaxLimit {
		limit = analyzeMaxLimit
	}

	position := ""
	if strings.TrimSpace(in.Position) != "" {
		position = fpl.NormalizePosition(in.Position)
		if fpl.PositionIndex(position) < 0 {
			return AnalyzeResult{}, fmt.Errorf("%w: unknown position %q", ErrInvalidInput, in.Position)
		}
	}
	if in.MinPrice > 0 && in.MaxPrice > 0 && in.MinPrice > in.MaxPrice {
		return AnalyzeResult{}, fmt.Errorf("%w: min_price exceeds max_price", ErrInvalidInput)
	}

	bootstrap, err := s.catalog.Bootstrap(ctx)
	if err != nil {
		return AnalyzeResult{}, err
	}
	teams := bootstrap.TeamsByID()
	teamNeedle := strings.ToLower(strings.TrimSpace(in.Team))

	filtered := make([]fpl.Player, 0, len(bootstrap.Elements))
	for _, p := range bootstrap.Elements {
		if position != "" && fpl.PositionCode(p.ElementType) != position {
			continue
		}
		if teamNeedle != "" && !strings.Contains(strings.ToLower(teams[p.TeamID].Name), teamNeedle) {
			continue
		}
		price := p.Price()
		if in.MinPrice > 0 && price < in.MinPrice {
			continue
		}
		if in.MaxPrice > 0 && price > in.MaxPrice {
			continue
		}
		if in.MinPoints > 0 && p.TotalPoints < in.MinPoints {
			continue
		}
		if in.MinForm > 0 && fpl.ParseDecimal(p.Form) < in.MinForm {
			continue
		}
		if in.MaxOwnership > 0 && fpl.ParseDecimal(p.SelectedByPercent) > in.MaxOwnership {
			continue
		}
		filtered = append(filtered, p)
	}

	sortKey := normalizeSortKey(in.SortBy)
	sort.SliceStable(filtered, func(i, j int) bool {
		return analyzeSortValue(filtered[i], sortKey) > analyzeSortValue(filtered[j], sortKey)
	})

	result := AnalyzeResult{
		TotalFound: len(filtered),
		Filters: AppliedFilters{
			Position:     position,
			Team:         strings.TrimSpace(in.Team),
			MinPrice:     in.MinPrice,
			MaxPrice:     in.MaxPrice,
			MinPoints:    in.MinPoints,
			MinForm:      in.MinForm,
			MaxOwnership: in.MaxOwnership,
		},
		Summary: summarizeFiltered(filtered, teams),
	}

	page := filtered
	if len(page) > limit {
		page = page[:limit]
	}
	result.Players = make([]AnalyzedPlayer, 0, len(page))
	for _, p := range page {
		result.Players = append(result.Players, AnalyzedPlayer{
			Name:      p.WebName,
			Team:      teams[p.TeamID].Name,
			Position:  fpl.PositionCode(p.ElementType),
			Price:     p.Price(),
			Points:    p.TotalPoints,
			Form:      p.Form,
			Ownership: p.SelectedByPercent + "%",
			Goals:     p.GoalsScored,
			Assists:   p.Assists,
		})
	}

	return result, nil
}

func normalizeSortKey(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "price", "now_cost":
		return "price"
	case "form":
		return "form"
	case "ownership", "selected_by_percent":
		return "ownership"
	case "goals", "goals_scored":
		return "goals"
	case "assists":
		return "assists"
	case "minutes":
		return "minutes"
	default:
		return "points"
	}
}

func analyzeSortValue(p fpl.Player, key string) float64 {
	switch key {
	case "price":
		return p.Price()
	case "form":
		return fpl.ParseDecimal(p.Form)
	case "ownership":
		return fpl.ParseDecimal(p.SelectedByPercent)
	case "goals":
		return float64(p.GoalsScored)
	case "assists":
		return float64(p.Assists)
	case "minutes":
		return float64(p.Minutes)
	default:
		return float64(p.TotalPoints)
	}
}

// summarizeFiltered aggregates the whole filtered set: averages, the
// distribution across positions (fixed GKP/DEF/MID/FWD order) and the three
// most represented teams (count descending, name as the tie-breaker).
func summarizeFiltered(players []fpl.Player, teams map[int]fpl.Team) AnalyzeSummary {
	summary := AnalyzeSummary{
		Positions: []PositionCount{},
		TopTeams:  []TeamCount{},
	}
	if len(players) == 0 {
		return summary
	}

	var priceSum, pointsSum float64
	positionCounts := [4]int{}
	teamCounts := make(map[string]int, len(teams))
	for _, p := range players {
		priceSum += p.Price()
		pointsSum += float64(p.TotalPoints)
		if idx := fpl.PositionIndex(fpl.PositionCode(p.ElementType)); idx >= 0 {
			positionCounts[idx]++
		}
		teamCounts[teams[p.TeamID].Name]++
	}

	summary.AveragePrice = roundTo(priceSum/float64(len(players)), 1)
	summary.AveragePoints = roundTo(pointsSum/float64(len(players)), 1)
	for idx, count := range positionCounts {
		if count > 0 {
			summary.Positions = append(summary.Positions, PositionCount{
				Position: fpl.PositionCode(idx + 1),
				Count:    count,
			})
		}
	}

	names := make([]string, 0, len(teamCounts))
	for name := range teamCounts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if teamCounts[names[i]] != teamCounts[names[j]] {
			return teamCounts[names[i]] > teamCounts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > 3 {
		names = names[:3]
	}
	for _, name := range names {
		summary.TopTeams = append(summary.TopTeams, TeamCount{Team: name, Count: teamCounts[name]})
	}

	return summary
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
