package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerListClassesTool(srv, svc)
	registerGetScheduleTool(srv, svc)
	registerGetPeriodTool(srv, svc)
}

func registerListClassesTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_classes",
		mcp.WithDescription("List every class with a routine."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		classes, err := svc.ListClasses(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"classes": classes,
			"count":   len(classes),
		})
	})
}

func registerGetScheduleTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"get_schedule",
		mcp.WithDescription("Get the weekly schedule of a class."),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Class identifier, see list_classes."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		class, err := request.RequireString("class")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		dto, err := svc.Schedule(ctx, class)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerGetPeriodTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"get_period",
		mcp.WithDescription("Get what a class has in one period of one day."),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Class identifier, see list_classes."),
		),
		mcp.WithString("day",
			mcp.Required(),
			mcp.Description("Weekday, either a key such as wed or a name such as Wednesday."),
		),
		mcp.WithNumber("period",
			mcp.Required(),
			mcp.Description("Period number, 1 to 8. Period 4 is the lunch break."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Class  string `json:"class"`
			Day    string `json:"day"`
			Period int    `json:"period"`
		}

		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.Period(ctx, args.Class, args.Day, args.Period)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
