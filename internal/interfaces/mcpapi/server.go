package mcpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fpltools/fpl-mcp/internal/platform/logging"
	"github.com/fpltools/fpl-mcp/internal/usecase"
)

type Config struct {
	Name    string
	Version string
}

// Server exposes the query operations as MCP tools and the read-only
// catalogue views as MCP resources.
type Server struct {
	playerService  *usecase.PlayerService
	fixtureService *usecase.FixtureService
	entryService   *usecase.EntryService
	catalog        usecase.CatalogProvider
	logger         *logging.Logger
	validator      *validator.Validate
	name           string
	version        string
}

func NewServer(
	cfg Config,
	playerService *usecase.PlayerService,
	fixtureService *usecase.FixtureService,
	entryService *usecase.EntryService,
	catalog usecase.CatalogProvider,
	logger *logging.Logger,
) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "fpl-mcp"
	}
	if cfg.Version == "" {
		cfg.Version = "0.0.0"
	}

	return &Server{
		playerService:  playerService,
		fixtureService: fixtureService,
		entryService:   entryService,
		catalog:        catalog,
		logger:         logger,
		validator:      validator.New(),
		name:           cfg.Name,
		version:        cfg.Version,
	}
}

// Build assembles the MCP server with every tool and resource registered.
func (s *Server) Build() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    s.name,
			Version: s.version,
		},
		nil,
	)
	s.registerTools(server)
	s.registerResources(server)
	return server
}

// Handler serves the MCP server over streamable HTTP.
func (s *Server) Handler() http.Handler {
	server := s.Build()
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func (s *Server) validateArgs(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "mcpapi.Server.validateArgs")
	defer span.End()

	if err := s.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type SearchPlayerArgs struct {
	Name string `json:"name" validate:"required" jsonschema:"Full or partial player name (required)"`
}

type ComparePlayersArgs struct {
	PlayerNames     []string `json:"player_names" validate:"required,min=2,max=5,dive,required" jsonschema:"Two to five player names"`
	Metrics         []string `json:"metrics,omitempty" jsonschema:"Metrics to compare (default: the standard set)"`
	IncludeFixtures bool     `json:"include_fixtures,omitempty" jsonschema:"Include upcoming fixture difficulty per player"`
}

type AnalyzePlayersArgs struct {
	Position     string  `json:"position,omitempty" jsonschema:"Position filter: GKP/DEF/MID/FWD or full name"`
	Team         string  `json:"team,omitempty" jsonschema:"Team name filter (substring)"`
	MinPrice     float64 `json:"min_price,omitempty" validate:"gte=0" jsonschema:"Minimum price in millions"`
	MaxPrice     float64 `json:"max_price,omitempty" validate:"gte=0" jsonschema:"Maximum price in millions"`
	MinPoints    int     `json:"min_points,omitempty" validate:"gte=0" jsonschema:"Minimum total points"`
	MinForm      float64 `json:"min_form,omitempty" validate:"gte=0" jsonschema:"Minimum form"`
	MaxOwnership float64 `json:"max_ownership,omitempty" validate:"gte=0" jsonschema:"Maximum ownership percentage (differentials)"`
	SortBy       string  `json:"sort_by,omitempty" jsonschema:"Sort field: points/price/form/ownership/goals/assists/minutes"`
	Limit        int     `json:"limit,omitempty" validate:"gte=0,lte=100" jsonschema:"Result cap (default 20, max 100)"`
}

type PlayerFixturesArgs struct {
	PlayerName  string `json:"player_name" validate:"required" jsonschema:"Player name (required)"`
	NumFixtures int    `json:"num_fixtures,omitempty" validate:"gte=0" jsonschema:"How many upcoming fixtures (default 5)"`
}

type AnalyzeFixturesArgs struct {
	EntityType   string `json:"entity_type,omitempty" jsonschema:"What to analyze: player, team or position (default team)"`
	EntityName   string `json:"entity_name" validate:"required" jsonschema:"Name of the player, team or position"`
	NumGameweeks int    `json:"num_gameweeks,omitempty" validate:"gte=0" jsonschema:"Gameweek window (default 5)"`
}

type GameweekWindowArgs struct {
	NumGameweeks int `json:"num_gameweeks,omitempty" validate:"gte=0" jsonschema:"Gameweeks ahead to inspect (default 5)"`
}

type GetTeamArgs struct {
	TeamID   int `json:"team_id" validate:"required,gt=0" jsonschema:"FPL team id (required)"`
	Gameweek int `json:"gameweek,omitempty" validate:"gte=0" jsonschema:"Gameweek (0 = current)"`
}

type ManagerInfoArgs struct {
	TeamID int `json:"team_id,omitempty" validate:"gte=0" jsonschema:"FPL team id (0 = configured team)"`
}

type TeamHistoryArgs struct {
	TeamID       int `json:"team_id,omitempty" validate:"gte=0" jsonschema:"FPL team id (0 = configured team)"`
	NumGameweeks int `json:"num_gameweeks,omitempty" validate:"gte=0" jsonschema:"Recent gameweeks to include (default 5)"`
}

type LeagueStandingsArgs struct {
	LeagueID int `json:"league_id" validate:"required,gt=0" jsonschema:"Classic league id (required)"`
}

type EmptyArgs struct{}

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_player",
		Description: "Search players by name, with stats for each match",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SearchPlayerArgs) (*mcp.CallToolResult, any, error) {
		if err := s.validateArgs(ctx, args); err != nil {
			return toolError(err), nil, nil
		}
		out, err := s.playerService.SearchPlayers(ctx, args.Name)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare_players",
		Description: "Head-to-head comparison of two to five players across metrics",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ComparePlayersArgs) (*mcp.CallToolResult, any, error) {
		if err := s.validateArgs(ctx, args); err != nil {
			return toolError(err), nil, nil
		}
		out, err := s.playerService.ComparePlayers(ctx, usecase.CompareInput{
			Names:           args.PlayerNames,
			Metrics:         args.Metrics,
			IncludeFixtures: args.IncludeFixtures,
		})
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_players",
		Description: "Filter and rank players by position, team, price, points, form and ownership",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AnalyzePlayersArgs) (*mcp.CallToolResult, any, error) {
		if err := s.validateArgs(ctx, args); err != nil {
			return toolError(err), nil, nil
		}
		out, err := s.playerService.AnalyzePlayers(ctx, usecase.AnalyzeInput{
			Position:     args.Position,
			Team:         args.Team,
			MinPrice:     args.MinPrice,
			MaxPrice:     args.MaxPrice,
			MinPoints:    args.MinPoints,
			MinForm:      args.MinForm,
			MaxOwnership: args.MaxOwnership,
			SortBy:       args.SortBy,
			Limit:        args.Limit,
		})
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_player_fixtures",
		Description: "Upcoming fixture difficulty for a player",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerFixturesArgs) (*mcp.CallToolResult, any, error) {
		if err := s.validateArgs(ctx, args); err != nil {
			return toolError(err), nil, nil
		}
		out, err := s.fixtureService.AnalyzePlayerFixtures(ctx, args.PlayerName, args.NumFixtures)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_fixtures",
		Description: "Fixture difficulty for a player, team or position over the next gameweeks",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeFixturesArgs) (*mcp.CallToolResult, any, error) {
		if err := s.validateArgs(ctx, args); err != nil {
			return toolError(err), nil, nil
		}
		out, err := s.fixtureService.AnalyzeFixtures(ctx, args.EntityType, args.EntityName, args.NumGameweeks)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_gameweek_status",
		Description: "Current, next and previous gameweek with deadlines",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		out, err := s.fixtureService.GameweekStatus(ctx)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_blank_gameweeks",
		Description: "Upcoming gameweeks where teams have no fixture",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GameweekWindowArgs) (*mcp.CallToolResult, any, error) {
		if err := s.validateArgs(ctx, args); err != nil {
			return toolError(err), nil, nil
		}
		out, err := s.fixtureService.BlankGameweeks(ctx, args.NumGameweeks)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_double_gameweeks",
		Description: "Upcoming gameweeks where teams play more than once",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GameweekWindowArgs) (*mcp.CallToolResult, any, error) {
		if err := s.validateArgs(ctx, args); err != nil {
			return toolError(err), nil, nil
		}
		out, err := s.fixtureService.DoubleGameweeks(ctx, args.NumGameweeks)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_my_team_details",
		Description: "The configured manager's team: rank, points, value and bank",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		out, err := s.entryService.MyTeamDetails(ctx)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_team",
		Description: "Any manager's squad for a gameweek: starters, bench and captaincy",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetTeamArgs) (*mcp.CallToolResult, any, error) {
		if err := s.validateArgs(ctx, args); err != nil {
			return toolError(err), nil, nil
		}
		out, err := s.entryService.GetTeam(ctx, args.TeamID, args.Gameweek)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_manager_info",
		Description: "A manager's public profile",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ManagerInfoArgs) (*mcp.CallToolResult, any, error) {
		if err := s.validateArgs(ctx, args); err != nil {
			return toolError(err), nil, nil
		}
		out, err := s.entryService.ManagerInfo(ctx, args.TeamID)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_team_history",
		Description: "A team's recent gameweek history: points, rank, value",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args TeamHistoryArgs) (*mcp.CallToolResult, any, error) {
		if err := s.validateArgs(ctx, args); err != nil {
			return toolError(err), nil, nil
		}
		out, err := s.entryService.TeamHistory(ctx, args.TeamID, args.NumGameweeks)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_league_standings",
		Description: "Classic league standings, top 25 entries",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args LeagueStandingsArgs) (*mcp.CallToolResult, any, error) {
		if err := s.validateArgs(ctx, args); err != nil {
			return toolError(err), nil, nil
		}
		out, err := s.entryService.LeagueStandings(ctx, args.LeagueID)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_fpl_authentication",
		Description: "Probe the configured FPL credentials and report session health",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(s.entryService.CheckAuthentication(ctx))
	})
}
