package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/fpltools/fpl-mcp/internal/platform/logging"
)

func newPlayerService(catalog *stubCatalog) *PlayerService {
	return NewPlayerService(catalog, logging.NewNop())
}

func TestPlayerService_SearchPlayers(t *testing.T) {
	svc := newPlayerService(&stubCatalog{bootstrap: testBootstrap()})

	result, err := svc.SearchPlayers(context.Background(), "saka")
	if err != nil {
		t.Fatalf("SearchPlayers: %v", err)
	}
	if result.Found != 1 || len(result.Players) != 1 {
		t.Fatalf("found = %d, players = %d", result.Found, len(result.Players))
	}

	p := result.Players[0]
	if p.Name != "Bukayo Saka" || p.WebName != "Saka" {
		t.Fatalf("unexpected names: %q / %q", p.Name, p.WebName)
	}
	if p.Team != "Arsenal" || p.Position != "MID" {
		t.Fatalf("team/position = %q/%q", p.Team, p.Position)
	}
	if p.Price != 10.2 {
		t.Fatalf("price = %v, want 10.2", p.Price)
	}
	if p.SelectedBy != "45.3%" {
		t.Fatalf("selected_by = %q", p.SelectedBy)
	}
}

func TestPlayerService_SearchPlayers_MatchesFullName(t *testing.T) {
	svc := newPlayerService(&stubCatalog{bootstrap: testBootstrap()})

	result, err := svc.SearchPlayers(context.Background(), "mohamed")
	if err != nil {
		t.Fatalf("SearchPlayers: %v", err)
	}
	if result.Found != 1 || result.Players[0].WebName != "M.Salah" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPlayerService_SearchPlayers_Errors(t *testing.T) {
	svc := newPlayerService(&stubCatalog{bootstrap: testBootstrap()})

	if _, err := svc.SearchPlayers(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank query err = %v, want %v", err, ErrInvalidInput)
	}
	if _, err := svc.SearchPlayers(context.Background(), "zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("miss err = %v, want %v", err, ErrNotFound)
	}
}

func TestPlayerService_ComparePlayers_DefaultMetrics(t *testing.T) {
	svc := newPlayerService(&stubCatalog{bootstrap: testBootstrap()})

	result, err := svc.ComparePlayers(context.Background(), CompareInput{Names: []string{"saka", "salah"}})
	if err != nil {
		t.Fatalf("ComparePlayers: %v", err)
	}
	if len(result.Players) != 2 || len(result.Winners) != len(compareMetrics) {
		t.Fatalf("players = %d, winners = %d", len(result.Players), len(result.Winners))
	}

	winners := make(map[string]string, len(result.Winners))
	for _, w := range result.Winners {
		winners[w.Metric] = w.Winner
	}
	if winners["total_points"] != "M.Salah" {
		t.Fatalf("total_points winner = %q", winners["total_points"])
	}
	if winners["assists"] != "Saka" {
		t.Fatalf("assists winner = %q", winners["assists"])
	}
	// Price is the one metric where cheaper wins.
	if winners["now_cost"] != "Saka" {
		t.Fatalf("now_cost winner = %q", winners["now_cost"])
	}

	if result.Verdict.Winner != "M.Salah" {
		t.Fatalf("verdict winner = %q", result.Verdict.Winner)
	}
	if result.Verdict.Tally[0].Name != "Saka" || result.Verdict.Tally[1].Name != "M.Salah" {
		t.Fatalf("tally order = %+v", result.Verdict.Tally)
	}
	if len(result.Fixtures) != 0 {
		t.Fatalf("fixtures should be omitted, got %+v", result.Fixtures)
	}
}

func TestPlayerService_ComparePlayers_TieMetric(t *testing.T) {
	bootstrap := testBootstrap()
	bootstrap.Elements[1].Assists = 8 // same as Saka
	svc := newPlayerService(&stubCatalog{bootstrap: bootstrap})

	result, err := svc.ComparePlayers(context.Background(), CompareInput{
		Names:   []string{"saka", "salah"},
		Metrics: []string{"assists"},
	})
	if err != nil {
		t.Fatalf("ComparePlayers: %v", err)
	}
	if result.Winners[0].Winner != "tie" {
		t.Fatalf("winner = %q, want tie", result.Winners[0].Winner)
	}
	if result.Verdict.Winner != "tie" {
		t.Fatalf("verdict = %q, want tie", result.Verdict.Winner)
	}
}

func TestPlayerService_ComparePlayers_FivePlayersWithFixtures(t *testing.T) {
	catalog := &stubCatalog{bootstrap: testBootstrap(), fixtures: testFixtures()}
	svc := newPlayerService(catalog)

	result, err := svc.ComparePlayers(context.Background(), CompareInput{
		Names:           []string{"saka", "salah", "palmer", "raya", "gabriel"},
		IncludeFixtures: true,
	})
	if err != nil {
		t.Fatalf("ComparePlayers: %v", err)
	}
	if len(result.Players) != 5 || len(result.Fixtures) != 5 {
		t.Fatalf("players = %d, fixtures = %d", len(result.Players), len(result.Fixtures))
	}
	if catalog.snapshotCall != 1 {
		t.Fatalf("snapshot calls = %d, want 1", catalog.snapshotCall)
	}

	saka := result.Fixtures[0]
	if saka.FixtureCount != 4 || saka.AverageDifficulty != 3.0 || saka.Rating != "Good" {
		t.Fatalf("saka outlook = %+v", saka)
	}
}

func TestPlayerService_ComparePlayers_Errors(t *testing.T) {
	svc := newPlayerService(&stubCatalog{bootstrap: testBootstrap()})
	ctx := context.Background()

	if _, err := svc.ComparePlayers(ctx, CompareInput{Names: []string{"saka"}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("one name err = %v, want %v", err, ErrInvalidInput)
	}
	sixNames := []string{"a", "b", "c", "d", "e", "f"}
	if _, err := svc.ComparePlayers(ctx, CompareInput{Names: sixNames}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("six names err = %v, want %v", err, ErrInvalidInput)
	}
	if _, err := svc.ComparePlayers(ctx, CompareInput{Names: []string{"saka", "salah"}, Metrics: []string{"vibes"}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown metric err = %v, want %v", err, ErrInvalidInput)
	}
	if _, err := svc.ComparePlayers(ctx, CompareInput{Names: []string{"saka", "nobody"}}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing player err = %v, want %v", err, ErrNotFound)
	}
}

func TestPlayerService_AnalyzePlayers_Filters(t *testing.T) {
	svc := newPlayerService(&stubCatalog{bootstrap: testBootstrap()})

	result, err := svc.AnalyzePlayers(context.Background(), AnalyzeInput{
		Position: "midfielder",
		MaxPrice: 11.0,
	})
	if err != nil {
		t.Fatalf("AnalyzePlayers: %v", err)
	}

	// Salah (13.1m) is priced out; Saka and Palmer remain, sorted by points.
	if result.TotalFound != 2 {
		t.Fatalf("total_found = %d, want 2", result.TotalFound)
	}
	if result.Players[0].Name != "Palmer" || result.Players[1].Name != "Saka" {
		t.Fatalf("order = %+v", result.Players)
	}
	if result.Filters.Position != "MID" || result.Filters.MaxPrice != 11.0 {
		t.Fatalf("filters = %+v", result.Filters)
	}
}

func TestPlayerService_AnalyzePlayers_SortAndLimit(t *testing.T) {
	svc := newPlayerService(&stubCatalog{bootstrap: testBootstrap()})

	result, err := svc.AnalyzePlayers(context.Background(), AnalyzeInput{
		SortBy: "form",
		Limit:  2,
	})
	if err != nil {
		t.Fatalf("AnalyzePlayers: %v", err)
	}
	if len(result.Players) != 2 {
		t.Fatalf("page size = %d, want 2", len(result.Players))
	}
	if result.Players[0].Name != "M.Salah" || result.Players[1].Name != "Saka" {
		t.Fatalf("form order = %+v", result.Players)
	}
	// The summary covers all five survivors, not the two-row page.
	if result.TotalFound != 5 {
		t.Fatalf("total_found = %d, want 5", result.TotalFound)
	}
	if len(result.Summary.Positions) != 3 {
		t.Fatalf("positions = %+v", result.Summary.Positions)
	}
	if result.Summary.TopTeams[0].Team != "Arsenal" || result.Summary.TopTeams[0].Count != 3 {
		t.Fatalf("top teams = %+v", result.Summary.TopTeams)
	}
}

func TestPlayerService_AnalyzePlayers_UnknownSortFallsBackToPoints(t *testing.T) {
	svc := newPlayerService(&stubCatalog{bootstrap: testBootstrap()})

	result, err := svc.AnalyzePlayers(context.Background(), AnalyzeInput{SortBy: "xgi"})
	if err != nil {
		t.Fatalf("AnalyzePlayers: %v", err)
	}
	if result.Players[0].Name != "M.Salah" {
		t.Fatalf("fallback order = %+v", result.Players)
	}
}

func TestPlayerService_AnalyzePlayers_Errors(t *testing.T) {
	svc := newPlayerService(&stubCatalog{bootstrap: testBootstrap()})
	ctx := context.Background()

	if _, err := svc.AnalyzePlayers(ctx, AnalyzeInput{Position: "sweeper"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("position err = %v, want %v", err, ErrInvalidInput)
	}
	if _, err := svc.AnalyzePlayers(ctx, AnalyzeInput{MinPrice: 9, MaxPrice: 5}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("price range err = %v, want %v", err, ErrInvalidInput)
	}
	if _, err := svc.AnalyzePlayers(ctx, AnalyzeInput{Limit: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("limit err = %v, want %v", err, ErrInvalidInput)
	}
}

// Repeated calls over unchanged upstream data must serialize to the same
// bytes, so downstream callers can cache or diff results safely.
func TestPlayerService_ResultsAreDeterministic(t *testing.T) {
	svc := newPlayerService(&stubCatalog{bootstrap: testBootstrap()})
	ctx := context.Background()

	first, err := svc.ComparePlayers(ctx, CompareInput{Names: []string{"saka", "salah", "palmer"}})
	if err != nil {
		t.Fatalf("ComparePlayers: %v", err)
	}
	second, err := svc.ComparePlayers(ctx, CompareInput{Names: []string{"saka", "salah", "palmer"}})
	if err != nil {
		t.Fatalf("ComparePlayers: %v", err)
	}

	firstJSON, err := sonic.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	secondJSON, err := sonic.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(firstJSON, secondJSON) {
		t.Fatalf("compare results diverge:\n%s\n%s", firstJSON, secondJSON)
	}

	analyzedA, err := svc.AnalyzePlayers(ctx, AnalyzeInput{Position: "midfielder"})
	if err != nil {
		t.Fatalf("AnalyzePlayers: %v", err)
	}
	analyzedB, err := svc.AnalyzePlayers(ctx, AnalyzeInput{Position: "midfielder"})
	if err != nil {
		t.Fatalf("AnalyzePlayers: %v", err)
	}

	aJSON, err := sonic.Marshal(analyzedA)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	bJSON, err := sonic.Marshal(analyzedB)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(aJSON, bJSON) {
		t.Fatalf("analyze results diverge:\n%s\n%s", aJSON, bJSON)
	}
}
