package mcpapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valyala/bytebufferpool"

	"github.com/fpltools/fpl-mcp/internal/domain/fpl"
	"github.com/fpltools/fpl-mcp/internal/usecase"
)

const (
	resourcePlayerLimit    = 100
	resourceGameweekLimit  = 10
	resourceFixtureLimit   = 20
	resourceGameweekWindow = 10
)

func (s *Server) registerResources(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         "fpl://static/players",
		Name:        "all_players",
		Description: "All FPL players with headline statistics",
		MIMEType:    "text/plain",
	}, s.readAllPlayers)

	server.AddResource(&mcp.Resource{
		URI:         "fpl://static/teams",
		Name:        "all_teams",
		Description: "All Premier League teams with strength ratings",
		MIMEType:    "text/plain",
	}, s.readAllTeams)

	server.AddResource(&mcp.Resource{
		URI:         "fpl://gameweeks/current",
		Name:        "current_gameweek",
		Description: "Current gameweek information",
		MIMEType:    "text/plain",
	}, s.readCurrentGameweek)

	server.AddResource(&mcp.Resource{
		URI:         "fpl://gameweeks/all",
		Name:        "all_gameweeks",
		Description: "Gameweek deadlines for the season",
		MIMEType:    "text/plain",
	}, s.readAllGameweeks)

	server.AddResource(&mcp.Resource{
		URI:         "fpl://fixtures",
		Name:        "all_fixtures",
		Description: "Upcoming fixtures for the current season",
		MIMEType:    "text/plain",
	}, s.readFixtures)

	server.AddResource(&mcp.Resource{
		URI:         "fpl://gameweeks/blank",
		Name:        "blank_gameweeks",
		Description: "Upcoming blank gameweeks",
		MIMEType:    "text/plain",
	}, s.readBlankGameweeks)

	server.AddResource(&mcp.Resource{
		URI:         "fpl://gameweeks/double",
		Name:        "double_gameweeks",
		Description: "Upcoming double gameweeks",
		MIMEType:    "text/plain",
	}, s.readDoubleGameweeks)
}

func textResource(req *mcp.ReadResourceRequest, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     text,
			},
		},
	}
}

func (s *Server) readAllPlayers(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ctx, span := startSpan(ctx, "mcpapi.Server.readAllPlayers")
	defer span.End()

	bootstrap, err := s.catalog.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	teams := bootstrap.TeamsByID()

	shown := bootstrap.Elements
	if len(shown) > resourcePlayerLimit {
		shown = shown[:resourcePlayerLimit]
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	fmt.Fprintf(buf, "Showing %d/%d players:", len(shown), len(bootstrap.Elements))
	for _, p := range shown {
		fmt.Fprintf(buf, "\n%s (%s) - £%.1fm, %dpts, Form: %s",
			p.WebName, teams[p.TeamID].Name, p.Price(), p.TotalPoints, p.Form)
	}

	return textResource(req, buf.String()), nil
}

func (s *Server) readAllTeams(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ctx, span := startSpan(ctx, "mcpapi.Server.readAllTeams")
	defer span.End()

	bootstrap, err := s.catalog.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for i, t := range bootstrap.Teams {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(buf, "%s - Strength: %d (H:%d, A:%d)",
			t.Name, t.Strength, t.StrengthOverallHome, t.StrengthOverallAway)
	}

	return textResource(req, buf.String()), nil
}

func (s *Server) readCurrentGameweek(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ctx, span := startSpan(ctx, "mcpapi.Server.readCurrentGameweek")
	defer span.End()

	bootstrap, err := s.catalog.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	for _, e := range bootstrap.Events {
		if !e.IsCurrent {
			continue
		}
		text := fmt.Sprintf("Gameweek %d: %s\nDeadline: %s\nFinished: %t",
			e.ID, e.Name, e.DeadlineTime, e.Finished)
		return textResource(req, text), nil
	}

	return textResource(req, "No current gameweek"), nil
}

func (s *Server) readAllGameweeks(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ctx, span := startSpan(ctx, "mcpapi.Server.readAllGameweeks")
	defer span.End()

	bootstrap, err := s.catalog.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	shown := bootstrap.Events
	if len(shown) > resourceGameweekLimit {
		shown = shown[:resourceGameweekLimit]
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	fmt.Fprintf(buf, "Showing %d/%d gameweeks:", len(shown), len(bootstrap.Events))
	for _, e := range shown {
		fmt.Fprintf(buf, "\nGW%d: %s (Deadline: %s)", e.ID, e.Name, e.DeadlineTime)
	}

	return textResource(req, buf.String()), nil
}

func (s *Server) readFixtures(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ctx, span := startSpan(ctx, "mcpapi.Server.readFixtures")
	defer span.End()

	bootstrap, fixtures, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	teams := bootstrap.TeamsByID()

	if len(fixtures) > resourceFixtureLimit {
		fixtures = fixtures[:resourceFixtureLimit]
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	fmt.Fprintf(buf, "Next %d fixtures:", resourceFixtureLimit)
	for _, f := range fixtures {
		if f.Event == nil {
			continue
		}
		fmt.Fprintf(buf, "\nGW%d: %s vs %s (%s)",
			*f.Event, teamName(teams, f.TeamH), teamName(teams, f.TeamA), kickoffDate(f.KickoffTime))
	}

	return textResource(req, buf.String()), nil
}

func (s *Server) readBlankGameweeks(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ctx, span := startSpan(ctx, "mcpapi.Server.readBlankGameweeks")
	defer span.End()

	out, err := s.fixtureService.BlankGameweeks(ctx, resourceGameweekWindow)
	if err != nil {
		return nil, err
	}

	text := "Blank gameweeks:\n" + formatGameweekTeams(gameweekTeamLines(out.BlankGameweeks))
	return textResource(req, text), nil
}

func (s *Server) readDoubleGameweeks(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ctx, span := startSpan(ctx, "mcpapi.Server.readDoubleGameweeks")
	defer span.End()

	out, err := s.fixtureService.DoubleGameweeks(ctx, resourceGameweekWindow)
	if err != nil {
		return nil, err
	}

	text := "Double gameweeks:\n" + formatGameweekTeams(gameweekTeamLines(out.DoubleGameweeks))
	return textResource(req, text), nil
}

func gameweekTeamLines(entries []usecase.GameweekTeams) []string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("GW%d: %s", entry.Gameweek, strings.Join(entry.Teams, ", ")))
	}
	return lines
}

func formatGameweekTeams(lines []string) string {
	if len(lines) == 0 {
		return "None found"
	}
	return strings.Join(lines, "\n")
}

func teamName(teams map[int]fpl.Team, id int) string {
	if t, ok := teams[id]; ok {
		return t.Name
	}
	return "?"
}

// kickoffDate keeps the date part of an RFC 3339 kickoff timestamp.
func kickoffDate(kickoff string) string {
	if len(kickoff) >= 10 {
		return kickoff[:10]
	}
	return kickoff
}
