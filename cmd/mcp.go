package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/agentic-research/confedit/api"
	"github.com/agentic-research/confedit/internal/pipeline"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"
)

// Version is reported to MCP clients.
var Version = "dev"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve config_query and config_edit as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// stdout carries the protocol; logs go to stderr.
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		return server.ServeStdio(newMCPServer(osfs.New("/"), logger))
	},
}

func newMCPServer(fsys billy.Filesystem, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("confedit", Version, server.WithToolCapabilities(false))
	t := &toolHandlers{fs: fsys, logger: logger}

	s.AddTool(mcp.NewTool("config_query",
		mcp.WithDescription("Read the value a path expression addresses in a TOML, JSON or YAML file."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Absolute path of the configuration file")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path expression, e.g. $.package.version")),
		mcp.WithString("syntax", mcp.Description("jsonpath (default) or jq")),
		mcp.WithString("format", mcp.Description("toml, json, yaml or hcl; default by extension")),
	), t.query)

	s.AddTool(mcp.NewTool("config_edit",
		mcp.WithDescription("Replace the value at every location a path expression addresses and return the updated document."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Absolute path of the configuration file")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path expression, e.g. $.package.version")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Replacement, parsed as a JSON literal when possible")),
		mcp.WithBoolean("write", mcp.Description("Write the result back to disk")),
		mcp.WithString("output", mcp.Description("Write to this file instead")),
		mcp.WithString("syntax", mcp.Description("jsonpath (default) or jq")),
		mcp.WithString("format", mcp.Description("toml, json, yaml or hcl; default by extension")),
	), t.edit)

	return s
}

type toolHandlers struct {
	fs     billy.Filesystem
	logger *slog.Logger
}

func (t *toolHandlers) query(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := toolInputs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := pipeline.Run(ctx, pipeline.Deps{FS: t.fs, Logger: t.logger}, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(res.Outputs.Value), nil
}

func (t *toolHandlers) edit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := toolInputs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Value, err = req.RequireString("value"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Path == "" {
		return mcp.NewToolResultError("path must not be empty"), nil
	}
	if in.Value == "" {
		return mcp.NewToolResultError("value must not be empty"), nil
	}
	in.Write = req.GetBool("write", false)
	in.Output = req.GetString("output", "")

	res, err := pipeline.Run(ctx, pipeline.Deps{FS: t.fs, Logger: t.logger}, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary := `{}`
	for _, kv := range []struct {
		key string
		val any
	}{
		{"previous", res.Outputs.Value},
		{"locations", written(res)},
		{"written_to", res.WrittenTo},
		{"content", res.Outputs.Content},
	} {
		if summary, err = sjson.Set(summary, kv.key, kv.val); err != nil {
			return nil, err
		}
	}
	if res.Outputs.Patch != "" {
		if summary, err = sjson.SetRaw(summary, "patch", res.Outputs.Patch); err != nil {
			return nil, err
		}
	}
	return mcp.NewToolResultText(summary), nil
}

func written(res *pipeline.Result) int {
	if res.Mutation == nil {
		return 0
	}
	return res.Mutation.Written()
}

func toolInputs(req mcp.CallToolRequest) (api.Inputs, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return api.Inputs{}, err
	}
	path, err := req.RequireString("path")
	if err != nil {
		return api.Inputs{}, err
	}
	return api.Inputs{
		File:   file,
		Path:   path,
		Syntax: req.GetString("syntax", ""),
		Format: req.GetString("format", ""),
	}, nil
}
