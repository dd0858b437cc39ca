package usecase

import (
	"context"

	"github.com/fpltools/fpl-mcp/internal/domain/fpl"
)

type stubCatalog struct {
	bootstrap    fpl.Bootstrap
	fixtures     []fpl.Fixture
	entries      map[int]fpl.Entry
	league       fpl.LeagueStandings
	err          error
	entryCalls   int
	leagueCalls  int
	snapshotCall int
}

func (s *stubCatalog) Bootstrap(context.Context) (fpl.Bootstrap, error) {
	if s.err != nil {
		return fpl.Bootstrap{}, s.err
	}
	return s.bootstrap, nil
}

func (s *stubCatalog) Fixtures(context.Context) ([]fpl.Fixture, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.fixtures, nil
}

func (s *stubCatalog) Snapshot(ctx context.Context) (fpl.Bootstrap, []fpl.Fixture, error) {
	s.snapshotCall++
	if s.err != nil {
		return fpl.Bootstrap{}, nil, s.err
	}
	return s.bootstrap, s.fixtures, nil
}

func (s *stubCatalog) Entry(ctx context.Context, entryID int) (fpl.Entry, error) {
	s.entryCalls++
	if s.err != nil {
		return fpl.Entry{}, s.err
	}
	entry, ok := s.entries[entryID]
	if !ok {
		return fpl.Entry{}, ErrNotFound
	}
	return entry, nil
}

func (s *stubCatalog) LeagueStandings(ctx context.Context, leagueID int) (fpl.LeagueStandings, error) {
	s.leagueCalls++
	if s.err != nil {
		return fpl.LeagueStandings{}, s.err
	}
	return s.league, nil
}

type stubAuth struct {
	configured bool
	missing    []string
	teamID     int
	entry      fpl.Entry
	entryErr   error
	picks      fpl.Picks
	picksErr   error
	history    fpl.History
	historyErr error

	entryReads int
	picksEntry int
	picksGW    int
}

func (s *stubAuth) Configured() bool { return s.configured }

func (s *stubAuth) MissingCredentials() []string { return s.missing }

func (s *stubAuth) TeamID() int { return s.teamID }

func (s *stubAuth) Entry(_ context.Context) (fpl.Entry, error) {
	s.entryReads++
	if s.entryErr != nil {
		return fpl.Entry{}, s.entryErr
	}
	return s.entry, nil
}

func (s *stubAuth) Picks(_ context.Context, entryID, gameweek int) (fpl.Picks, error) {
	s.picksEntry = entryID
	s.picksGW = gameweek
	if s.picksErr != nil {
		return fpl.Picks{}, s.picksErr
	}
	return s.picks, nil
}

func (s *stubAuth) History(_ context.Context, entryID int) (fpl.History, error) {
	if s.historyErr != nil {
		return fpl.History{}, s.historyErr
	}
	return s.history, nil
}

func gw(n int) *int { return &n }

func testBootstrap() fpl.Bootstrap {
	return fpl.Bootstrap{
		Events: []fpl.Event{
			{ID: 14, Name: "Gameweek 14", DeadlineTime: "2025-12-06T11:00:00Z", Finished: true, IsPrevious: true},
			{ID: 15, Name: "Gameweek 15", DeadlineTime: "2025-12-13T11:00:00Z", IsCurrent: true},
			{ID: 16, Name: "Gameweek 16", DeadlineTime: "2025-12-20T11:00:00Z", IsNext: true},
		},
		Teams: []fpl.Team{
			{ID: 1, Name: "Arsenal", ShortName: "ARS", Strength: 5, StrengthOverallHome: 1350, StrengthOverallAway: 1330},
			{ID: 2, Name: "Liverpool", ShortName: "LIV", Strength: 5, StrengthOverallHome: 1360, StrengthOverallAway: 1340},
			{ID: 3, Name: "Chelsea", ShortName: "CHE", Strength: 4, StrengthOverallHome: 1280, StrengthOverallAway: 1250},
		},
		Elements: []fpl.Player{
			{
				ID: 10, FirstName: "Bukayo", SecondName: "Saka", WebName: "Saka",
				TeamID: 1, ElementType: 3, NowCost: 102, TotalPoints: 89,
				Form: "7.5", PointsPerGame: "6.2", GoalsScored: 6, Assists: 8,
				Bonus: 12, Minutes: 1200, SelectedByPercent: "45.3",
				ExpectedGoals: "5.11", ExpectedAssists: "6.02",
			},
			{
				ID: 11, FirstName: "Mohamed", SecondName: "Salah", WebName: "M.Salah",
				TeamID: 2, ElementType: 3, NowCost: 131, TotalPoints: 112,
				Form: "8.1", PointsPerGame: "7.0", GoalsScored: 12, Assists: 7,
				Bonus: 18, Minutes: 1260, SelectedByPercent: "62.1",
				ExpectedGoals: "10.51", ExpectedAssists: "5.33",
			},
			{
				ID: 12, FirstName: "Cole", SecondName: "Palmer", WebName: "Palmer",
				TeamID: 3, ElementType: 3, NowCost: 110, TotalPoints: 95,
				Form: "6.0", PointsPerGame: "6.3", GoalsScored: 9, Assists: 6,
				Bonus: 14, Minutes: 1240, SelectedByPercent: "38.4",
				ExpectedGoals: "8.20", ExpectedAssists: "4.90",
			},
			{
				ID: 13, FirstName: "David", SecondName: "Raya", WebName: "Raya",
				TeamID: 1, ElementType: 1, NowCost: 56, TotalPoints: 60,
				Form: "4.0", PointsPerGame: "4.0", SelectedByPercent: "21.0",
			},
			{
				ID: 14, FirstName: "Gabriel", SecondName: "Magalhaes", WebName: "Gabriel",
				TeamID: 1, ElementType: 2, NowCost: 62, TotalPoints: 70,
				Form: "5.5", PointsPerGame: "4.7", GoalsScored: 3, Assists: 1,
				Bonus: 8, Minutes: 1350, SelectedByPercent: "30.2",
			},
		},
	}
}

func testFixtures() []fpl.Fixture {
	return []fpl.Fixture{
		// Finished round, ignored by upcoming-fixture scans.
		{ID: 1, Event: gw(14), TeamH: 1, TeamA: 3, TeamHDifficulty: 3, TeamADifficulty: 4, KickoffTime: "2025-12-06T15:00:00Z", Finished: true},
		{ID: 2, Event: gw(15), TeamH: 1, TeamA: 2, TeamHDifficulty: 4, TeamADifficulty: 4, KickoffTime: "2025-12-13T15:00:00Z"},
		{ID: 3, Event: gw(16), TeamH: 3, TeamA: 1, TeamHDifficulty: 3, TeamADifficulty: 2, KickoffTime: "2025-12-20T15:00:00Z"},
		{ID: 4, Event: gw(17), TeamH: 1, TeamA: 2, TeamHDifficulty: 4, TeamADifficulty: 4, KickoffTime: "2025-12-27T15:00:00Z"},
		{ID: 5, Event: gw(17), TeamH: 3, TeamA: 1, TeamHDifficulty: 3, TeamADifficulty: 2, KickoffTime: "2025-12-30T19:45:00Z"},
		// Postponed fixture, not yet assigned to a gameweek.
		{ID: 7, Event: nil, TeamH: 2, TeamA: 3, TeamHDifficulty: 3, TeamADifficulty: 5, KickoffTime: ""},
	}
}
