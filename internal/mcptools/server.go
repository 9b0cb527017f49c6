// Package mcptools exposes merge jobs to MCP clients. The five tools mirror
// the HTTP API: agents create a job, start it, and poll for the outcome.
package mcptools

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMergeMCPServer creates an MCP server with all 5 merge tools registered.
func NewMergeMCPServer(svc *MergeService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "repomerge",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_merge_job",
		Description: "Register a merge job for two repository sides. The job starts in the pending state; call start_merge to run it. Side A's content wins whenever the reasoning provider cannot fuse a file.",
	}, svc.CreateMergeJob)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_merge",
		Description: "Start a pending merge job. The merge runs in the background; poll get_merge_status until the job reaches completed or failed.",
	}, svc.StartMerge)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_merge_status",
		Description: "Report a merge job's lifecycle state. Includes the error message for failed jobs and the summary for completed ones.",
	}, svc.GetMergeStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_merge_summary",
		Description: "Return the full outcome of a completed merge: file and conflict counts, recorded conflicts with resolution options, and the merged file paths.",
	}, svc.GetMergeSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_merge_jobs",
		Description: "List stored merge jobs in creation order with their status and repository sides. Supports limit and offset for paging.",
	}, svc.ListMergeJobs)

	return server
}

// HTTPHandler wraps the MCP server in a streamable HTTP handler suitable for
// mounting on the API server's mux.
func HTTPHandler(svc *MergeService) http.Handler {
	server := NewMergeMCPServer(svc)
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
}
