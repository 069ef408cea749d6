// Package mcpserver exposes the converter as Model Context Protocol tools
// over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bjaus/xmlconv"
	"github.com/bjaus/xmlconv/internal/ctxlog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for the converter.
type Server struct {
	mcp    *server.MCPServer
	opts   []xmlconv.Option
	logger *slog.Logger
}

// New creates the server and registers its tools. opts are applied to every
// conversion.
func New(version string, logger *slog.Logger, opts ...xmlconv.Option) *Server {
	s := &Server{opts: opts, logger: logger}
	s.mcp = server.NewMCPServer(
		"xmlconv",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.registerTools()
	return s
}

// Serve runs the stdio transport on in and out until ctx is done or in is
// closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("MCP stdio server starting")
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	err := stdio.Listen(ctxlog.WithLogger(ctx, s.logger), in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("xml_to_json",
		mcp.WithDescription("Convert an XML document to JSON wrapped in its root element name"),
		mcp.WithString("xml", mcp.Description("XML document"), mcp.Required()),
	), s.fixed(xmlconv.JSON))

	s.mcp.AddTool(mcp.NewTool("xml_to_yaml",
		mcp.WithDescription("Convert an XML document to YAML"),
		mcp.WithString("xml", mcp.Description("XML document"), mcp.Required()),
	), s.fixed(xmlconv.YAML))

	s.mcp.AddTool(mcp.NewTool("xml_to_csv",
		mcp.WithDescription("Flatten the record list of an XML document into CSV"),
		mcp.WithString("xml", mcp.Description("XML document"), mcp.Required()),
	), s.fixed(xmlconv.CSV))

	s.mcp.AddTool(mcp.NewTool("convert",
		mcp.WithDescription("Convert an XML, JSON or YAML document to any supported text format"),
		mcp.WithString("content", mcp.Description("Source document"), mcp.Required()),
		mcp.WithString("format", mcp.Description("Output format: json, yaml, csv, tsv, table, markdown, html, jsonl or go-template=<template>"), mcp.Required()),
		mcp.WithString("input", mcp.Description("Source format: xml (default), json or yaml"), mcp.Enum("xml", "json", "yaml")),
	), s.handleConvert)
}

func (s *Server) fixed(f xmlconv.Format) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := req.RequireString("xml")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.run(ctx, req.Params.Name, f, data, xmlconv.XMLInput)
	}
}

func (s *Server) handleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := xmlconv.ParseFormat(req.GetString("format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if f == xmlconv.Parquet {
		return mcp.NewToolResultError("parquet is a binary format and cannot be returned as text"), nil
	}
	in, err := xmlconv.ParseInput(req.GetString("input", string(xmlconv.XMLInput)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(ctx, req.Params.Name, f, content, in)
}

// run converts data. Bad input and empty documents are reported as tool
// errors the caller can act on; anything else fails the call.
func (s *Server) run(ctx context.Context, tool string, f xmlconv.Format, data string, in xmlconv.Input) (*mcp.CallToolResult, error) {
	logger := s.logger.With("tool", tool, "format", f.String())
	opts := append(append([]xmlconv.Option(nil), s.opts...), xmlconv.WithInput(in))
	out, err := xmlconv.Marshal(f, []byte(data), opts...)
	switch {
	case err == nil:
		logger.DebugContext(ctx, "Tool call complete.", "out_bytes", len(out))
		return mcp.NewToolResultText(string(out)), nil
	case errors.Is(err, xmlconv.ErrNoData):
		logger.InfoContext(ctx, "No data to convert.")
		return mcp.NewToolResultError("No valid data to convert."), nil
	case errors.Is(err, xmlconv.ErrParse),
		errors.Is(err, xmlconv.ErrInvalidTemplate),
		errors.Is(err, xmlconv.ErrUnsupportedInput):
		logger.InfoContext(ctx, "Rejected tool call.", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	default:
		logger.ErrorContext(ctx, "Tool call failed.", "error", err)
		return nil, fmt.Errorf("%s: %w", tool, err)
	}
}
