// Package main provides the docpivot MCP server: the conversion engine
// exposed as Model Context Protocol tools over stdio.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/docpivot/docpivot/internal/config"
	"github.com/docpivot/docpivot/internal/convert"
	"github.com/docpivot/docpivot/internal/event"
	"github.com/docpivot/docpivot/internal/format"
	"github.com/docpivot/docpivot/internal/job"
	"github.com/docpivot/docpivot/internal/observability"
)

const serverVersion = "1.0.0"

type app struct {
	logger *observability.Logger
	engine *job.Engine
	graph  *format.Graph
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol; logs must go to stderr only.
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      "json",
		Output:      os.Stderr,
		ServiceName: "docpivot-mcp",
	})

	graph := format.NewGraph()
	store := job.NewStore(logger)
	broadcaster := event.NewBroadcaster(logger, event.DefaultConfig())
	engine := job.NewEngine(logger, store, graph, convert.NewRegistry(), broadcaster, job.EngineConfig{
		MaxPayloadBytes:   cfg.Conversion.MaxPayloadBytes,
		Timeout:           cfg.Conversion.Timeout,
		MaxConcurrentJobs: cfg.Conversion.MaxConcurrentJobs,
		RetentionWindow:   cfg.Conversion.RetentionWindow,
		EvictInterval:     cfg.Conversion.EvictInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.RunJanitor(ctx)

	a := &app{logger: logger, engine: engine, graph: graph}

	s := server.NewMCPServer("docpivot", serverVersion)

	s.AddTool(mcp.NewTool("convert_document",
		mcp.WithDescription("Convert a document from one format to another. "+
			"Returns the converted content, or a job id when wait is false."),
		mcp.WithString("source_format",
			mcp.Required(),
			mcp.Description("Source format: text, markdown, html, pdf or docx"),
		),
		mcp.WithString("target_format",
			mcp.Required(),
			mcp.Description("Target format: text, markdown, html, pdf or docx"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Document content; base64-encoded when encoding is set"),
		),
		mcp.WithString("encoding",
			mcp.Description("Set to \"base64\" for binary documents"),
		),
		mcp.WithBoolean("wait",
			mcp.Description("Block until the conversion finishes (default true)"),
		),
	), a.convertDocument)

	s.AddTool(mcp.NewTool("list_supported_formats",
		mcp.WithDescription("List all supported document formats and the targets each can convert to"),
	), a.listSupportedFormats)

	s.AddTool(mcp.NewTool("get_conversion_status",
		mcp.WithDescription("Get the status of a conversion job by id"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job id returned from convert_document"),
		),
	), a.getConversionStatus)

	logger.Info().Msg("Starting docpivot MCP server on stdio")
	if err := server.ServeStdio(s); err != nil {
		logger.Error().Err(err).Msg("MCP server stopped")
		os.Exit(1)
	}
}

func (a *app) convertDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	source, _ := args["source_format"].(string)
	target, _ := args["target_format"].(string)
	content, _ := args["content"].(string)

	payload := []byte(content)
	if enc, _ := args["encoding"].(string); enc == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid base64 content: %v", err)), nil
		}
		payload = decoded
	}

	wait := true
	if v, ok := args["wait"].(bool); ok {
		wait = v
	}

	j, err := a.engine.Submit(ctx, source, target, payload)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !wait {
		return jobResult(j)
	}

	final, err := a.engine.Wait(ctx, j.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("wait interrupted: %v", err)), nil
	}
	if final.Status == job.StatusFailed {
		return mcp.NewToolResultError(fmt.Sprintf("conversion failed (%s): %s",
			final.Failure.Kind, final.Failure.Message)), nil
	}

	// Binary targets are returned base64-encoded so they survive the
	// text transport.
	switch final.Target {
	case format.PDF, format.DOCX:
		return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(final.Result)), nil
	}
	return mcp.NewToolResultText(string(final.Result)), nil
}

func (a *app) listSupportedFormats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type formatInfo struct {
		Name        string   `json:"name"`
		ContentType string   `json:"content_type"`
		Description string   `json:"description"`
		Targets     []string `json:"targets"`
	}

	all := format.All()
	infos := make([]formatInfo, 0, len(all))
	for _, f := range all {
		info := formatInfo{
			Name:        string(f),
			ContentType: f.ContentType(),
			Description: f.Description(),
			Targets:     make([]string, 0, len(all)-1),
		}
		for _, target := range all {
			if target == f {
				continue
			}
			if _, ok := a.graph.Path(f, target); ok {
				info.Targets = append(info.Targets, string(target))
			}
		}
		infos = append(infos, info)
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (a *app) getConversionStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("job_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid job id: %v", err)), nil
	}

	j, err := a.engine.Status(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("job %s not found", idStr)), nil
	}

	return jobResult(j)
}

func jobResult(j job.Job) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
