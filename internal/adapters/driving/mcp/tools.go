package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// errEmptyQuestion is returned by tools that need a question.
var errEmptyQuestion = errors.New("question is required")

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"a natural-language question about products, sales, customers, inventory or reviews"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer string `json:"answer"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Question string `json:"question" jsonschema:"the question to gather warehouse context for"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Context string `json:"context"`
	Found   bool   `json:"found"`
}

// StatsInput is the empty input schema for the stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	CollectionName string `json:"collection_name"`
	DocumentCount  *int   `json:"document_count"`
	CountAvailable bool   `json:"count_available"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about the sales warehouse from indexed records",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the warehouse records relevant to a question without answering it",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Report how many documents the vector index holds",
	}, s.handleStats)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, AskOutput{}, errEmptyQuestion
	}

	answer, err := s.ports.Query.Ask(ctx, question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: answer.Answer}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, RetrieveOutput{}, errEmptyQuestion
	}

	text, err := s.ports.Query.Retrieve(ctx, question)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	return nil, RetrieveOutput{Context: text, Found: text != ""}, nil
}

// handleStats handles the stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	return nil, s.stats(ctx), nil
}

func (s *Server) stats(ctx context.Context) StatsOutput {
	st := s.ports.Query.Stats(ctx)
	out := StatsOutput{CollectionName: st.Collection, CountAvailable: st.CountAvailable}
	if st.CountAvailable {
		n := st.DocumentCount
		out.DocumentCount = &n
	}
	return out
}
