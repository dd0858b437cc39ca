package usecase

import (
	"context"

	"github.com/fpltools/fpl-mcp/internal/domain/fpl"
)

// CatalogProvider serves the public statistics endpoints. Implementations
// cache responses; repeated calls within the cache TTL must not hit the
// upstream again.
type CatalogProvider interface {
	Bootstrap(ctx context.Context) (fpl.Bootstrap, error)
	Fixtures(ctx context.Context) ([]fpl.Fixture, error)
	Snapshot(ctx context.Context) (fpl.Bootstrap, []fpl.Fixture, error)
	Entry(ctx context.Context, entryID int) (fpl.Entry, error)
	LeagueStandings(ctx context.Context, leagueID int) (fpl.LeagueStandings, error)
}

// AuthenticatedProvider serves the endpoints that require the configured
// manager's session. Picks and History accept any entry id but always ride
// the single configured session. Every read hits the upstream; only the
// session itself is reused between calls.
type AuthenticatedProvider interface {
	Configured() bool
	MissingCredentials() []string
	TeamID() int
	Entry(ctx context.Context) (fpl.Entry, error)
	Picks(ctx context.Context, entryID, gameweek int) (fpl.Picks, error)
	History(ctx context.Context, entryID int) (fpl.History, error)
}
