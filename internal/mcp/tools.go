package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askPartsTool defines the ask_parts MCP tool.
var askPartsTool = mcp.NewTool("ask_parts",
	mcp.WithDescription("Ask the semiconductor parts assistant a question in natural language. Returns a grounded answer with sources and a confidence score."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Question about parts, inventory, or equipment documents (Korean or English)"),
	),
)

// searchDocumentsTool defines the search_documents MCP tool.
var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Search ingested equipment documents semantically. Returns relevant chunks with their source and page."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
	mcp.WithString("type_filter",
		mcp.Description("Filter results by document type"),
		mcp.Enum("manual", "guideline", "report", "datasheet", "general"),
	),
)

// getPartTool defines the get_part MCP tool.
var getPartTool = mcp.NewTool("get_part",
	mcp.WithDescription("Get a part's full record including stock levels, specifications, and its suppliers, equipment, and related documents."),
	mcp.WithString("part_id",
		mcp.Required(),
		mcp.Description("Part identifier, e.g. ABC-12345"),
	),
)

// searchPartsTool defines the search_parts MCP tool.
var searchPartsTool = mcp.NewTool("search_parts",
	mcp.WithDescription("Search the parts inventory by ID, name, or category."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search term matched against part ID, name, and category"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
)
