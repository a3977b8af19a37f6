package browser

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yhl48/proxy-lite/kit"
)

// RegisterMCP registers the browsing tools on an MCP server. Image blobs
// are stripped from observe responses; MCP callers read the rendered mark
// list and fetch screenshots over HTTP when they need pixels.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerStartTool(srv)
	s.registerObserveTool(srv)
	s.registerGotoTool(srv)
	s.registerClickTool(srv)
	s.registerTypeTool(srv)
	s.registerScrollTool(srv)
	s.registerBackTool(srv)
	s.registerSelectTool(srv)
	s.registerPageTextTool(srv)
	s.registerCloseTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var sessionProp = map[string]any{"type": "string", "description": "Session ID"}
var markProp = map[string]any{"type": "integer", "description": "Mark index from the latest observation"}

// --- start session ---

type startReq struct {
	URL string `json:"url"`
}

func (s *Service) registerStartTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "browser_start_session",
		Description: "Start a browsing session, optionally navigating to a URL. Returns the session ID.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Optional start URL"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*startReq)
		id, err := s.StartSession(ctx, r.URL)
		if err != nil {
			return nil, err
		}
		return map[string]any{"session_id": id}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[startReq])
}

// --- observe ---

type observeReq struct {
	SessionID string `json:"session_id"`
}

func (s *Service) registerObserveTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "browser_observe",
		Description: "Scan the current page for interactive elements and return the indexed mark list.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*observeReq)
		res, err := s.Observe(ctx, r.SessionID)
		if err != nil {
			return nil, err
		}
		res.Screenshot = nil
		res.Annotated = nil
		return res, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[observeReq])
}

// --- goto ---

type gotoReq struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

func (s *Service) registerGotoTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "browser_goto",
		Description: "Navigate the session to a URL and wait for the page to load.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
			"url":        map[string]any{"type": "string", "description": "Destination URL"},
		}, []string{"session_id", "url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*gotoReq)
		if err := s.Goto(ctx, r.SessionID, r.URL); err != nil {
			return nil, err
		}
		return okResult(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[gotoReq])
}

// --- click ---

type clickReq struct {
	SessionID string `json:"session_id"`
	Mark      int    `json:"mark"`
	NewTab    bool   `json:"new_tab"`
}

func (s *Service) registerClickTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "browser_click",
		Description: "Click the element behind a mark index. new_tab middle-clicks to open links in a background tab.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
			"mark":       markProp,
			"new_tab":    map[string]any{"type": "boolean", "description": "Middle-click instead of left-click"},
		}, []string{"session_id", "mark"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*clickReq)
		if err := s.Click(ctx, r.SessionID, r.Mark, r.NewTab); err != nil {
			return nil, err
		}
		return okResult(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[clickReq])
}

// --- type ---

type typeReq struct {
	SessionID string `json:"session_id"`
	Mark      int    `json:"mark"`
	Text      string `json:"text"`
	Submit    bool   `json:"submit"`
}

func (s *Service) registerTypeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "browser_type",
		Description: "Clear the field behind a mark index and type text into it. submit presses Enter afterwards.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
			"mark":       markProp,
			"text":       map[string]any{"type": "string", "description": "Text to type"},
			"submit":     map[string]any{"type": "boolean", "description": "Press Enter after typing"},
		}, []string{"session_id", "mark", "text"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*typeReq)
		if err := s.Type(ctx, r.SessionID, r.Mark, r.Text, r.Submit); err != nil {
			return nil, err
		}
		return okResult(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[typeReq])
}

// --- scroll ---

type scrollReq struct {
	SessionID string `json:"session_id"`
	Mark      *int   `json:"mark"`
	Direction string `json:"direction"`
}

func (s *Service) registerScrollTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "browser_scroll",
		Description: "Scroll the viewport, or a scrollable marked element, by 80% of its height or width.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
			"mark":       map[string]any{"type": "integer", "description": "Optional mark to scroll inside; omit for the viewport"},
			"direction":  map[string]any{"type": "string", "enum": []string{"up", "down", "left", "right"}},
		}, []string{"session_id", "direction"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*scrollReq)
		mark := -1
		if r.Mark != nil {
			mark = *r.Mark
		}
		if err := s.Scroll(ctx, r.SessionID, mark, r.Direction); err != nil {
			return nil, err
		}
		return okResult(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[scrollReq])
}

// --- back ---

type backReq struct {
	SessionID string `json:"session_id"`
}

func (s *Service) registerBackTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "browser_back",
		Description: "Go one step back in the session's history.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*backReq)
		if err := s.Back(ctx, r.SessionID); err != nil {
			return nil, err
		}
		return okResult(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[backReq])
}

// --- select ---

type selectReq struct {
	SessionID string `json:"session_id"`
	Mark      int    `json:"mark"`
	Value     string `json:"value"`
}

func (s *Service) registerSelectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "browser_select",
		Description: "Set the value of the select element behind a mark index.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
			"mark":       markProp,
			"value":      map[string]any{"type": "string", "description": "Option value to select"},
		}, []string{"session_id", "mark", "value"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*selectReq)
		if err := s.Select(ctx, r.SessionID, r.Mark, r.Value); err != nil {
			return nil, err
		}
		return okResult(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[selectReq])
}

// --- page text ---

type pageTextReq struct {
	SessionID string `json:"session_id"`
}

func (s *Service) registerPageTextTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "browser_page_text",
		Description: "Return the current page converted to markdown.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*pageTextReq)
		text, err := s.PageText(ctx, r.SessionID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"text": text}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[pageTextReq])
}

// --- close session ---

type closeReq struct {
	SessionID string `json:"session_id"`
}

func (s *Service) registerCloseTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "browser_close_session",
		Description: "Close a browsing session. Its recorded history stays available.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*closeReq)
		if err := s.CloseSession(ctx, r.SessionID); err != nil {
			return nil, err
		}
		return okResult(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[closeReq])
}

func okResult() map[string]any {
	return map[string]any{"ok": true}
}

func decodeInto[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r T
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}
