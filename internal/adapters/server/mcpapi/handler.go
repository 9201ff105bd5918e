// Package mcpapi provides a stateless MCP streamable-HTTP adapter over the
// board service, so agent tooling can read and move tasks without a screen.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/revisjon/tavle/internal/app"
	"github.com/revisjon/tavle/internal/domain"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// BoardService is the slice of the application service the adapter exposes.
type BoardService interface {
	LoadBoard(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)
	MoveTask(ctx context.Context, taskID string, status domain.Status, column domain.ColumnID) (domain.Task, error)
	ReorderTask(ctx context.Context, taskID string, boardOrder int) (domain.Task, error)
	AssignTask(ctx context.Context, taskID, userID string) (domain.Task, error)
	ListUsers(ctx context.Context) ([]app.User, error)
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter with the board tools.
func NewHandler(cfg Config, board BoardService) (*Handler, error) {
	if board == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerListTasksTool(mcpSrv, board)
	registerMoveTaskTool(mcpSrv, board)
	registerReorderTaskTool(mcpSrv, board)
	registerAssignTaskTool(mcpSrv, board)
	registerListUsersTool(mcpSrv, board)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "tavle"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerListTasksTool registers the `tavle.list_tasks` tool.
func registerListTasksTool(srv *mcpserver.MCPServer, board BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavle.list_tasks",
			mcp.WithDescription("List the company's board tasks, optionally filtered."),
			mcp.WithString("status", mcp.Description("Filter by status"), mcp.Enum(statusValues()...)),
			mcp.WithString("priority", mcp.Description("Filter by priority")),
			mcp.WithString("assigned_to", mcp.Description("Filter by assignee user id")),
			mcp.WithString("client_id", mcp.Description("Filter by client")),
			mcp.WithString("tag", mcp.Description("Filter by tag")),
			mcp.WithString("search", mcp.Description("Substring match on title and description")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			tasks, err := board.LoadBoard(ctx, domain.TaskFilter{
				Status:     domain.Status(req.GetString("status", "")),
				Priority:   domain.Priority(req.GetString("priority", "")),
				AssignedTo: req.GetString("assigned_to", ""),
				ClientID:   req.GetString("client_id", ""),
				Tag:        req.GetString("tag", ""),
				Search:     req.GetString("search", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			payload := make([]taskPayload, 0, len(tasks))
			for _, task := range tasks {
				payload = append(payload, toTaskPayload(task))
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"tasks": payload})
			if err != nil {
				return nil, fmt.Errorf("encode list_tasks result: %w", err)
			}
			return result, nil
		},
	)
}

// registerMoveTaskTool registers the `tavle.move_task` tool.
func registerMoveTaskTool(srv *mcpserver.MCPServer, board BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavle.move_task",
			mcp.WithDescription("Move a task to another column; its status follows the column."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("column", mcp.Required(), mcp.Description("Target column"), mcp.Enum(columnValues()...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			columnRaw, err := req.RequireString("column")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			column := domain.ColumnID(strings.ToLower(strings.TrimSpace(columnRaw)))
			if !column.Valid() {
				return toolResultFromError(domain.ErrInvalidColumn), nil
			}
			task, err := board.MoveTask(ctx, taskID, column.Status(), column)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(toTaskPayload(task))
			if err != nil {
				return nil, fmt.Errorf("encode move_task result: %w", err)
			}
			return result, nil
		},
	)
}

// registerReorderTaskTool registers the `tavle.reorder_task` tool.
func registerReorderTaskTool(srv *mcpserver.MCPServer, board BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavle.reorder_task",
			mcp.WithDescription("Move a task to a position within its current column."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithNumber("position", mcp.Required(), mcp.Description("Zero-based target position")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			position, err := req.RequireInt("position")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := board.ReorderTask(ctx, taskID, position)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(toTaskPayload(task))
			if err != nil {
				return nil, fmt.Errorf("encode reorder_task result: %w", err)
			}
			return result, nil
		},
	)
}

// registerAssignTaskTool registers the `tavle.assign_task` tool.
func registerAssignTaskTool(srv *mcpserver.MCPServer, board BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavle.assign_task",
			mcp.WithDescription("Assign a task to a tenant user, or clear the assignee."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("user_id", mcp.Description("Assignee user id; empty unassigns")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := board.AssignTask(ctx, taskID, req.GetString("user_id", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(toTaskPayload(task))
			if err != nil {
				return nil, fmt.Errorf("encode assign_task result: %w", err)
			}
			return result, nil
		},
	)
}

// registerListUsersTool registers the `tavle.list_users` tool.
func registerListUsersTool(srv *mcpserver.MCPServer, board BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavle.list_users",
			mcp.WithDescription("List the tenant's users eligible for assignment."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			users, err := board.ListUsers(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			payload := make([]userPayload, 0, len(users))
			for _, u := range users {
				payload = append(payload, userPayload{ID: u.ID, Email: u.Email, Role: string(u.Role)})
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"users": payload})
			if err != nil {
				return nil, fmt.Errorf("encode list_users result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, app.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, domain.ErrInvalidColumn),
		errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidRole):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}

type taskPayload struct {
	ID            string   `json:"id"`
	ClientID      string   `json:"client_id,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Status        string   `json:"status"`
	BoardColumn   string   `json:"board_column"`
	BoardOrder    int      `json:"board_order"`
	Priority      string   `json:"priority"`
	Tags          []string `json:"tags,omitempty"`
	DueDate       string   `json:"due_date,omitempty"`
	CompletedAt   string   `json:"completed_at,omitempty"`
	AssignedTo    string   `json:"assigned_to,omitempty"`
	AssignedEmail string   `json:"assigned_to_email,omitempty"`
	IsStatutory   bool     `json:"is_statutory,omitempty"`
	StatutoryType string   `json:"statutory_type,omitempty"`
	UpdatedAt     string   `json:"updated_at"`
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toTaskPayload(t domain.Task) taskPayload {
	return taskPayload{
		ID:            t.ID,
		ClientID:      t.ClientID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        string(t.Status),
		BoardColumn:   string(t.BoardColumn),
		BoardOrder:    t.BoardOrder,
		Priority:      string(t.Priority),
		Tags:          t.Tags,
		DueDate:       stampString(t.DueDate),
		CompletedAt:   stampString(t.CompletedAt),
		AssignedTo:    t.AssignedTo,
		AssignedEmail: t.AssignedToEmail,
		IsStatutory:   t.IsStatutory,
		StatutoryType: t.StatutoryType,
		UpdatedAt:     t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func stampString(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func statusValues() []string {
	out := []string{}
	for _, s := range domain.Statuses() {
		out = append(out, string(s))
	}
	return out
}

func columnValues() []string {
	out := []string{}
	for _, c := range domain.ColumnIDs() {
		out = append(out, string(c))
	}
	return out
}
