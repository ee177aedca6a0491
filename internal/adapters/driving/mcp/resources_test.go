package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleStatsResource(t *testing.T) {
	server := newTestServer(t, &mockQueryService{stats: domain.IndexStats{
		Collection: "warehouse", DocumentCount: 42, CountAvailable: true,
	}})

	result, err := server.handleStatsResource(context.Background(), makeReadResourceRequest("quarry://stats"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "quarry://stats", result.Contents[0].URI)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.JSONEq(t,
		`{"collection_name":"warehouse","document_count":42,"count_available":true}`,
		result.Contents[0].Text)
}
