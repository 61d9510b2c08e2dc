package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerClassesResource(srv, svc)
	registerScheduleTemplate(srv, svc)
}

func registerClassesResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"uniroutine://classes",
		"Classes",
		mcp.WithResourceDescription("All classes that have a routine."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		classes, err := svc.ListClasses(ctx)
		if err != nil {
			return nil, err
		}

		payload := map[string]any{
			"classes": classes,
			"count":   len(classes),
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

func registerScheduleTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"uniroutine://classes/{id}/schedule",
		"Class Schedule",
		mcp.WithTemplateDescription("Weekly schedule of a class, Monday to Saturday."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := argument(request.Params.Arguments["id"])
		if id == "" {
			return nil, fmt.Errorf("class id is required")
		}

		dto, err := svc.Schedule(ctx, id)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, dto)
	})
}

// argument reads a template variable, which the server may pass as a string
// or a single-element slice.
func argument(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
	}
	return ""
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
