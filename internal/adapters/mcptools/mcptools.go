// Package mcptools exposes read-mostly views of the state as MCP tools and
// resources, so an assistant can ask when both users are free.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/okian/kairosync/internal/domain/cities"
	"github.com/okian/kairosync/internal/domain/model"
	tm "github.com/okian/kairosync/internal/domain/timemodel"
	"github.com/okian/kairosync/internal/domain/types"
	"github.com/okian/kairosync/pkg/logger"
	"github.com/okian/kairosync/pkg/metrics"
)

// StateURI names the snapshot resource.
const StateURI = "kairosync://state"

// unset marks an optional minute argument the caller left out.
const unset = -1

var nextGoldenDescription = fmt.Sprintf(
	"Find the next UTC minute within a day, in %d minute steps, when both users are free.", tm.GoldenStepMinutes)

// Dependencies is the part of the state container the tools read.
type Dependencies interface {
	Snapshot(ctx context.Context) types.Snapshot
	User(ctx context.Context, role types.Role) (model.UserProfile, error)
	GoldenWindow(ctx context.Context, utc int) types.GoldenResult
	NextGoldenWindow(ctx context.Context, from int) types.GoldenResult
	SearchCities(q string) []cities.City
	Events(ctx context.Context) []model.CalendarEvent
	DayEvents(ctx context.Context, dayOffset int) []model.CalendarEvent
}

// LocalTimes is what local_times returns.
type LocalTimes struct {
	UTCMinutes int    `json:"utcMinutes"`
	UTCTime    string `json:"utcTime"`
	Local      string `json:"local"`
	Remote     string `json:"remote"`
	LocalDay   int    `json:"localDayShift"`
	DiffLabel  string `json:"diffLabel"`
	Golden     bool   `json:"golden"`
}

// NewServer creates an MCP server with every tool and resource registered.
func NewServer(deps Dependencies, log logger.Logger, version string) *server.MCPServer {
	if log == nil {
		log = logger.Discard()
	}
	s := server.NewMCPServer(
		"kairosync",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("kairosync: two users' clocks on one UTC timeline, their golden windows and shared events."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("golden_window",
			mcp.WithDescription("Check whether a UTC minute of the day is free for both users."),
			mcp.WithNumber("utc_minutes", mcp.Description("UTC minute of the day, 0-1439; defaults to the selected minute")),
		),
		observed("golden_window", log, goldenWindow(deps)),
	)

	s.AddTool(
		mcp.NewTool("next_golden_window",
			mcp.WithDescription(nextGoldenDescription),
			mcp.WithNumber("from", mcp.Description("UTC minute to start from; defaults to the selected minute")),
		),
		observed("next_golden_window", log, nextGoldenWindow(deps)),
	)

	s.AddTool(
		mcp.NewTool("search_cities",
			mcp.WithDescription("Search the city table by name; queries shorter than 2 characters return nothing."),
			mcp.WithString("query", mcp.Description("Part of a city name"), mcp.Required()),
		),
		observed("search_cities", log, searchCities(deps)),
	)

	s.AddTool(
		mcp.NewTool("list_events",
			mcp.WithDescription("List saved events in agenda order."),
			mcp.WithNumber("day", mcp.Description("Only events this many days from today")),
		),
		observed("list_events", log, listEvents(deps)),
	)

	s.AddTool(
		mcp.NewTool("local_times",
			mcp.WithDescription("Show both users' local clock times for a UTC minute, or for HH:MM typed in one user's time."),
			mcp.WithNumber("utc_minutes", mcp.Description("UTC minute of the day; defaults to the selected minute")),
			mcp.WithString("text", mcp.Description("HH:MM in the given role's local time")),
			mcp.WithString("role", mcp.Description("local or remote; used with text"), mcp.Enum("local", "remote")),
		),
		observed("local_times", log, localTimes(deps)),
	)

	s.AddResource(
		mcp.NewResource(
			StateURI,
			"Kairosync state",
			mcp.WithResourceDescription("Both clocks, the selected minute, the draft and saved events as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		stateResource(deps),
	)

	return s
}

// observed counts tool calls by outcome.
func observed(tool string, log logger.Logger, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := h(ctx, req)
		status := "ok"
		if err != nil || (res != nil && res.IsError) {
			status = "error"
		}
		metrics.RecordMCPToolCall(tool, status)
		log.Debug(ctx, "mcp tool call", logger.String("tool", tool), logger.String("status", status))
		return res, err
	}
}

// minuteArg reads an optional minute argument, falling back to the
// selected minute.
func minuteArg(ctx context.Context, deps Dependencies, req mcp.CallToolRequest, name string) int {
	if m := req.GetInt(name, unset); m != unset {
		return m
	}
	return int(math.Floor(deps.Snapshot(ctx).SelectedUTC))
}

func goldenWindow(deps Dependencies) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(deps.GoldenWindow(ctx, minuteArg(ctx, deps, req, "utc_minutes")))
	}
}

func nextGoldenWindow(deps Dependencies) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := deps.NextGoldenWindow(ctx, minuteArg(ctx, deps, req, "from"))
		if !res.Found {
			return textResult("No golden window in the next 24 hours."), nil
		}
		return jsonResult(res)
	}
}

func searchCities(deps Dependencies) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := req.RequireString("query")
		if err != nil {
			return errorResult("query is required"), nil
		}
		return jsonResult(deps.SearchCities(q))
	}
}

func listEvents(deps Dependencies) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if day := req.GetInt("day", unset); day != unset {
			return jsonResult(deps.DayEvents(ctx, day))
		}
		return jsonResult(deps.Events(ctx))
	}
}

func localTimes(deps Dependencies) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		local, err := deps.User(ctx, types.RoleLocal)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		remote, err := deps.User(ctx, types.RoleRemote)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		var utc int
		if text := req.GetString("text", ""); text != "" {
			role := types.Role(req.GetString("role", string(types.RoleLocal)))
			if !role.Valid() {
				return errorResult(fmt.Sprintf("unknown role %q", role)), nil
			}
			offset := local.TimezoneOffset
			if role == types.RoleRemote {
				offset = remote.TimezoneOffset
			}
			minutes, ok := tm.ParseTime(text)
			if !ok {
				return errorResult(fmt.Sprintf("%q is not HH:MM", text)), nil
			}
			utc = tm.ToUTC(minutes, offset)
		} else {
			utc = tm.NormalizeMinutes(minuteArg(ctx, deps, req, "utc_minutes"))
		}

		return jsonResult(LocalTimes{
			UTCMinutes: utc,
			UTCTime:    tm.FormatTime(float64(utc)),
			Local:      tm.FormatTime(float64(tm.LocalMinutes(utc, local.TimezoneOffset))),
			Remote:     tm.FormatTime(float64(tm.LocalMinutes(utc, remote.TimezoneOffset))),
			LocalDay:   tm.DayShift(utc, remote.TimezoneOffset, local.TimezoneOffset),
			DiffLabel:  tm.RelativeTimeDiffLabel(local.TimezoneOffset, remote.TimezoneOffset),
			Golden:     tm.IsGoldenWindow(local, remote, utc),
		})
	}
}

func stateResource(deps Dependencies) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Snapshot(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return textResult(string(b)), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
