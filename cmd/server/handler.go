// In file: cmd/server/handler.go
package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dileep-u-k/femachat/internal/agent"
	"github.com/dileep-u-k/femachat/internal/app"
	"github.com/dileep-u-k/femachat/internal/claims"
	"github.com/dileep-u-k/femachat/internal/fema"
	"github.com/dileep-u-k/femachat/internal/llm"
	"github.com/dileep-u-k/femachat/internal/logger"
	"github.com/dileep-u-k/femachat/internal/summary"
	"github.com/dileep-u-k/femachat/internal/version"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultRecordLimit = 100
	maxRecordLimit     = 10000
)

// ClaimsHandler serves the claims table, its summaries, the tools and the
// assistant over HTTP.
type ClaimsHandler struct {
	app *app.App
}

func NewClaimsHandler(a *app.App) *ClaimsHandler {
	return &ClaimsHandler{app: a}
}

// Register mounts every route on engine.
func (h *ClaimsHandler) Register(engine *gin.Engine) {
	engine.GET("/healthz", h.HandleHealth)
	engine.GET("/version", h.HandleVersion)

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/claims", h.HandleFetch)
		v1.GET("/claims", h.HandleTable)
		v1.GET("/claims.csv", h.HandleCSV)
		v1.GET("/summaries", h.HandleSummaries)
		v1.GET("/summaries/:name", h.HandleSummary)
		v1.GET("/tools", h.HandleTools)
		v1.POST("/tools/:name", h.HandleToolCall)
		v1.POST("/ask", h.HandleAsk)
	}
}

// FetchRequest selects the claims to load: a zip code, raw OpenFEMA query
// parameters, or both (zipCode wins over params["reportedZipCode"]).
type FetchRequest struct {
	ZipCode string            `json:"zipCode"`
	Params  map[string]string `json:"params"`
}

// TableInfo describes the loaded snapshot.
type TableInfo struct {
	Params    map[string]string   `json:"params"`
	FetchedAt time.Time           `json:"fetched_at"`
	Rows      int                 `json:"rows"`
	Columns   []string            `json:"columns"`
	Records   []map[string]string `json:"records,omitempty"`
}

func tableInfo(snap *claims.Snapshot) TableInfo {
	return TableInfo{
		Params:    snap.Params,
		FetchedAt: snap.FetchedAt,
		Rows:      snap.Table.Len(),
		Columns:   snap.Table.Columns(),
	}
}

func (h *ClaimsHandler) HandleFetch(c *gin.Context) {
	var req FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	params := fema.QueryParameters{}
	for k, v := range req.Params {
		params[k] = v
	}
	if zip := strings.TrimSpace(req.ZipCode); zip != "" {
		params[claims.IdentityParam] = zip
	}
	if len(params) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "zipCode or params is required"})
		return
	}

	snap, err := h.app.Load(c.Request.Context(), params)
	if err != nil {
		logger.Warn("Fetch request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "table": tableInfo(snap)})
		return
	}
	c.JSON(http.StatusOK, tableInfo(snap))
}

// HandleTable returns the snapshot metadata; ?records=true adds up to
// ?limit= rows.
func (h *ClaimsHandler) HandleTable(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	info := tableInfo(snap)
	if withRecords, _ := strconv.ParseBool(c.Query("records")); withRecords {
		limit, err := parseLimit(c.Query("limit"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		info.Records = recordsOf(snap.Table, limit)
	}
	c.JSON(http.StatusOK, info)
}

func (h *ClaimsHandler) HandleCSV(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := claims.WriteCSV(&buf, snap.Table); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+claims.ExportFileName(snap.Params)+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// SummaryResponse is one rendered summary. Error is set instead of Text when
// the summary could not be computed.
type SummaryResponse struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

func toSummaryResponse(r summary.Result) SummaryResponse {
	resp := SummaryResponse{Name: r.Name, Title: r.Title, Text: r.Text}
	if r.Err != nil {
		resp.Error = summary.RenderError(r.Err)
		resp.Kind = summary.KindOf(r.Err).String()
	}
	return resp
}

func (h *ClaimsHandler) HandleSummaries(c *gin.Context) {
	results, err := summary.Compute(c.Request.Context(), h.app.Store.Table())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	out := make([]SummaryResponse, len(results))
	for i, r := range results {
		out[i] = toSummaryResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"summaries": out})
}

func (h *ClaimsHandler) HandleSummary(c *gin.Context) {
	op, ok := summary.Lookup(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown summary '" + c.Param("name") + "'"})
		return
	}
	text, err := op.Run(h.app.Store.Table())
	c.JSON(http.StatusOK, toSummaryResponse(summary.Result{Name: op.Name, Title: op.Title, Text: text, Err: err}))
}

func (h *ClaimsHandler) HandleTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": h.app.Tools.GetDefinitions()})
}

// HandleToolCall runs a tool directly; the request body is its JSON arguments.
func (h *ClaimsHandler) HandleToolCall(c *gin.Context) {
	name := c.Param("name")
	if _, ok := h.app.Tools.Lookup(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tool '" + name + "' not found"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body: " + err.Error()})
		return
	}
	args := strings.TrimSpace(string(body))
	if args == "" {
		args = "{}"
	}
	result, err := h.app.Tools.Execute(c.Request.Context(), name, args)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tool": name, "result": result})
}

// AskRequest is a question plus the earlier turns of the conversation.
type AskRequest struct {
	Question string        `json:"question" binding:"required"`
	History  []llm.Message `json:"history"`
}

type AskResponse struct {
	Answer    string        `json:"answer"`
	ToolsUsed []string      `json:"tools_used,omitempty"`
	Usage     llm.Usage     `json:"usage"`
	LatencyMS int64         `json:"latency_ms"`
	History   []llm.Message `json:"history"`
}

func (h *ClaimsHandler) HandleAsk(c *gin.Context) {
	if h.app.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "the assistant is disabled: no Gemini API key is configured"})
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	start := time.Now()
	logger.Info("New question", zap.String("question", req.Question), zap.Int("history", len(req.History)))
	answer, err := h.app.Assistant.Ask(c.Request.Context(), req.History, req.Question)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, agent.ErrTooManyToolCalls) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, AskResponse{
		Answer:    answer.Content,
		ToolsUsed: answer.ToolsUsed,
		Usage:     answer.Usage,
		LatencyMS: time.Since(start).Milliseconds(),
		History:   answer.Messages,
	})
}

func (h *ClaimsHandler) HandleHealth(c *gin.Context) {
	rows := -1
	if t := h.app.Store.Table(); t != nil {
		rows = t.Len()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"rows":      rows,
		"assistant": h.app.Assistant != nil,
	})
}

func (h *ClaimsHandler) HandleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, version.GetBuildInfo())
}

func (h *ClaimsHandler) snapshot(c *gin.Context) (*claims.Snapshot, bool) {
	snap := h.app.Store.Load()
	if snap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no claims loaded yet; POST /api/v1/claims first"})
		return nil, false
	}
	return snap, true
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultRecordLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	if n > maxRecordLimit {
		n = maxRecordLimit
	}
	return n, nil
}

func recordsOf(t *claims.Table, limit int) []map[string]string {
	n := t.Len()
	if limit < n {
		n = limit
	}
	cols := t.Columns()
	out := make([]map[string]string, n)
	for i := 0; i < n; i++ {
		row := t.Row(i)
		rec := make(map[string]string, len(cols))
		for j, col := range cols {
			rec[col] = row[j]
		}
		out[i] = rec
	}
	return out
}
