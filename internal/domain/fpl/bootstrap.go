package fpl

import (
	"strconv"
	"strings"
)

// Bootstrap mirrors the subset of the bootstrap-static payload this service
// reads. Fields the upstream serves as numeric strings (form, ownership,
// expected goals) stay strings here and are parsed on demand.
type Bootstrap struct {
	Events   []Event  `json:"events"`
	Teams    []Team   `json:"teams"`
	Elements []Player `json:"elements"`
}

type Player struct {
	ID                int    `json:"id"`
	FirstName         string `json:"first_name"`
	SecondName        string `json:"second_name"`
	WebName           string `json:"web_name"`
	TeamID            int    `json:"team"`
	ElementType       int    `json:"element_type"`
	NowCost           int    `json:"now_cost"`
	TotalPoints       int    `json:"total_points"`
	Form              string `json:"form"`
	PointsPerGame     string `json:"points_per_game"`
	GoalsScored       int    `json:"goals_scored"`
	Assists           int    `json:"assists"`
	Bonus             int    `json:"bonus"`
	Minutes           int    `json:"minutes"`
	SelectedByPercent string `json:"selected_by_percent"`
	ExpectedGoals     string `json:"expected_goals"`
	ExpectedAssists   string `json:"expected_assists"`
}

// FullName is "first second", the secondary match target for name searches.
func (p Player) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.SecondName)
}

// Price is the player cost in millions (upstream stores integer tenths).
func (p Player) Price() float64 {
	return Money(p.NowCost)
}

type Team struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	ShortName           string `json:"short_name"`
	Strength            int    `json:"strength"`
	StrengthOverallHome int    `json:"strength_overall_home"`
	StrengthOverallAway int    `json:"strength_overall_away"`
}

type Event struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DeadlineTime string `json:"deadline_time"`
	Finished     bool   `json:"finished"`
	IsCurrent    bool   `json:"is_current"`
	IsNext       bool   `json:"is_next"`
	IsPrevious   bool   `json:"is_previous"`
}

// TeamsByID indexes the team catalog by numeric id.
func (b Bootstrap) TeamsByID() map[int]Team {
	out := make(map[int]Team, len(b.Teams))
	for _, t := range b.Teams {
		out[t.ID] = t
	}
	return out
}

// CurrentGameweek returns the event flagged current, falling back to
// gameweek 1 when no event carries the flag (pre-season payloads).
func (b Bootstrap) CurrentGameweek() int {
	for _, e := range b.Events {
		if e.IsCurrent {
			return e.ID
		}
	}
	return 1
}

// FinalGameweek is the last round of the season calendar.
const FinalGameweek = 38

var positionCodes = [...]string{"GKP", "DEF", "MID", "FWD"}

// PositionCode maps the upstream element_type (1-4) to the 4-letter code.
func PositionCode(elementType int) string {
	if elementType < 1 || elementType > len(positionCodes) {
		return ""
	}
	return positionCodes[elementType-1]
}

// PositionIndex returns the 0-based slot of a canonical position code, or
// -1 for anything else.
func PositionIndex(code string) int {
	for i, known := range positionCodes {
		if code == known {
			return i
		}
	}
	return -1
}

// NormalizePosition accepts either a code or a full position name and
// returns the canonical 4-letter code, or the uppercased input when it is
// not a known alias.
func NormalizePosition(raw string) string {
	value := strings.ToUpper(strings.TrimSpace(raw))
	switch value {
	case "GOALKEEPER", "KEEPER":
		return "GKP"
	case "DEFENDER":
		return "DEF"
	case "MIDFIELDER":
		return "MID"
	case "FORWARD", "STRIKER":
		return "FWD"
	default:
		return value
	}
}

// Money converts upstream integer tenths of a million to a decimal value.
func Money(tenths int) float64 {
	return float64(tenths) / 10
}

// ParseDecimal parses the numeric strings the upstream emits for form,
// ownership and expected stats. Empty or malformed values read as zero.
func ParseDecimal(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return value
}
