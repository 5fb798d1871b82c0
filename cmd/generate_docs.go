package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autoagenda/internal/config"
	"github.com/teemow/autoagenda/internal/logging"
	"github.com/teemow/autoagenda/internal/server"
	"github.com/teemow/autoagenda/internal/tools/booking_tools"
)

func newGenerateDocsCmd(cfg *config.Config) *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, err := renderToolDocs(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), markdown)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// renderToolDocs registers every tool on a throwaway server and renders
// them. No Google credentials are needed since no tool is called.
func renderToolDocs(ctx context.Context, cfg *config.Config) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	docsCfg := *cfg
	docsCfg.PolicyFile = ""
	docsCfg.Store.Backend = config.StoreMemory
	docsCfg.Lock.Backend = config.LockLocal

	serverContext, err := server.NewServerContext(ctx, server.Options{
		Config:        &docsCfg,
		Logger:        logging.Discard().Logger(),
		GoogleOptions: []option.ClientOption{option.WithoutAuthentication()},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("autoagenda", version,
		mcpserver.WithToolCapabilities(true),
	)

	// Register in read-write mode to document every tool
	if err := booking_tools.RegisterBookingTools(mcpSrv, serverContext, false); err != nil {
		return "", fmt.Errorf("failed to register booking tools: %w", err)
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}

	return generateToolsMarkdown(tools), nil
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running autoagenda as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	toolsByCategory := groupToolsByCategory(tools)
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	sb.WriteString("## Table of Contents\n\n")
	for _, category := range categories {
		fmt.Fprintf(&sb, "- [%s](#%s)\n", category, strings.ToLower(strings.ReplaceAll(category, " ", "-")))
	}
	sb.WriteString("\n")

	sb.WriteString("## Calendars and Errors\n\n")
	sb.WriteString("Every tool accepts an optional `calendar_id`. Without it the server's configured calendar is used.\n\n")
	sb.WriteString("Failed calls return a tool error whose first line names the error kind:\n\n")
	sb.WriteString("- `invalid_argument`: fix the request before retrying\n")
	sb.WriteString("- `slot_no_longer_available`: search for free slots again\n")
	sb.WriteString("- `dependency_unavailable`, `dependency_timeout`: the same request can be retried\n")
	sb.WriteString("- `permission_denied`: the calendar account lacks access\n")
	sb.WriteString("- `partial_commit`: the event exists but the record was not saved; do not book again\n\n")

	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, tool := range categoryTools {
			writeToolMarkdown(&sb, tool)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := categoryOf(tool.Name)
		categories[category] = append(categories[category], tool)
	}
	return categories
}

func categoryOf(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	switch prefix {
	case "schedule":
		return "Scheduling Tools"
	default:
		return "Other"
	}
}

func writeToolMarkdown(sb *strings.Builder, tool mcp.Tool) {
	fmt.Fprintf(sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		return
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("**Arguments:**\n")
	for _, name := range names {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}

		requirement := "optional"
		if slices.Contains(tool.InputSchema.Required, name) {
			requirement = "required"
		}

		desc, ok := prop["description"].(string)
		if !ok {
			propType, _ := prop["type"].(string)
			if propType == "" {
				propType = "any"
			}
			desc = propType + " parameter"
		}
		fmt.Fprintf(sb, "- `%s` (%s): %s\n", name, requirement, desc)
	}
	sb.WriteString("\n")
}
