// Package mcpserver exposes bang search and resolution as MCP tools over
// stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"bangd/bang"
	"bangd/registry"
)

const (
	serverName        = "bangd"
	defaultMaxResults = 10
)

// ResolveBangInput defines input for the resolve_bang tool.
type ResolveBangInput struct {
	Query string `json:"query" jsonschema:"Search query, optionally containing a bang such as !gh"`
}

// ResolveBangOutput defines output for the resolve_bang tool.
type ResolveBangOutput struct {
	URL        string `json:"url"`
	Outcome    string `json:"outcome"`
	Bang       string `json:"bang"`
	Name       string `json:"name"`
	CleanQuery string `json:"clean_query"`
}

// SearchBangsInput defines input for the search_bangs tool.
type SearchBangsInput struct {
	Query      string `json:"query" jsonschema:"Terms and filters (bang:, key:, domain:, name:) to rank bangs by"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10)"`
}

// SearchBangsOutput defines output for the search_bangs tool.
type SearchBangsOutput struct {
	Results   []BangResult `json:"results"`
	TotalHits int          `json:"total_hits"`
}

type BangResult struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
	URL    string `json:"url"`
	Score  int    `json:"score"`
}

type tools struct {
	reg *registry.Registry
	log *zap.Logger
}

// New creates the MCP server with every bangd tool registered.
func New(reg *registry.Registry, version string, log *zap.Logger) *mcp.Server {
	if log == nil {
		log = zap.NewNop()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil,
	)

	t := &tools{reg: reg, log: log}
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "resolve_bang",
			Description: "Resolve a search query with an optional !bang to the destination URL bangd would redirect to.",
		},
		t.ResolveBang,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_bangs",
			Description: "Rank the configured bangs against search terms and key:/domain:/name: filters.",
		},
		t.SearchBangs,
	)

	log.Info("mcp server initialized", zap.String("version", version), zap.Int("tools", 2))
	return server
}

// Run serves MCP over stdin/stdout until ctx is done or the client hangs up.
func Run(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (t *tools) ResolveBang(ctx context.Context, req *mcp.CallToolRequest, in ResolveBangInput) (*mcp.CallToolResult, ResolveBangOutput, error) {
	res, err := t.reg.Resolve(in.Query)
	if err != nil {
		if errors.Is(err, bang.ErrUnresolved) {
			if s := t.reg.Suggest(res.Candidate); len(s) > 0 {
				return nil, ResolveBangOutput{}, fmt.Errorf("%w (did you mean !%s?)", err, strings.Join(s, ", !"))
			}
		}
		return nil, ResolveBangOutput{}, err
	}

	t.log.Debug("mcp resolve", zap.String("bang", res.Record.Key), zap.String("outcome", string(res.Outcome)))
	return nil, ResolveBangOutput{
		URL:        res.URL,
		Outcome:    string(res.Outcome),
		Bang:       res.Record.Key,
		Name:       res.Record.Name,
		CleanQuery: res.CleanQuery,
	}, nil
}

func (t *tools) SearchBangs(ctx context.Context, req *mcp.CallToolRequest, in SearchBangsInput) (*mcp.CallToolResult, SearchBangsOutput, error) {
	limit := in.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}

	_, scored := t.reg.Search(in.Query)
	out := SearchBangsOutput{Results: []BangResult{}, TotalHits: len(scored)}
	for i, s := range scored {
		if i == limit {
			break
		}
		out.Results = append(out.Results, BangResult{
			Key:    s.Record.Key,
			Name:   s.Record.Name,
			Domain: s.Record.Domain,
			URL:    s.Record.URL,
			Score:  s.Score,
		})
	}
	return nil, out, nil
}
