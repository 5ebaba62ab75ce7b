// Command mcp-debug is an MCP stdio server exposing read-only introspection
// tools (current_category, frequency_status, bundle_summary) over a running
// cmd/host-harness instance's /admin/debug endpoint, adapted from the
// teacher codebase's cmd/mcp-server (modelcontextprotocol/go-sdk server
// construction, stdio transport with a logging wrapper) but fronting the
// engine's debug snapshot instead of the RTB ad-data store.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// debugSnapshot mirrors engine.DebugSnapshot's JSON shape without importing
// the engine package directly, keeping this binary's only dependency on the
// running harness its HTTP debug endpoint.
type debugSnapshot struct {
	State            string   `json:"State"`
	CurrentCategory  string   `json:"CurrentCategory"`
	AdsPerHour       uint64   `json:"AdsPerHour"`
	AdsPerDay        uint64   `json:"AdsPerDay"`
	AdsShownLastHour int      `json:"AdsShownLastHour"`
	AdsShownLastDay  int      `json:"AdsShownLastDay"`
	ClientState      struct {
		Locale    string `json:"locale"`
		SearchState bool `json:"searchState"`
		ShopState   bool `json:"shopState"`
	} `json:"ClientState"`
	Bundle struct {
		CatalogID                  string   `json:"catalogId"`
		CatalogVersion             uint64   `json:"catalogVersion"`
		CatalogLastUpdatedTimestamp int64   `json:"catalogLastUpdatedTimestamp"`
		Categories                 map[string][]any `json:"categories"`
	} `json:"Bundle"`
}

type debugClient struct {
	baseURL string
	http    *http.Client
}

func (c *debugClient) fetch(ctx context.Context) (debugSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/admin/debug", nil)
	if err != nil {
		return debugSnapshot{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return debugSnapshot{}, fmt.Errorf("fetch debug snapshot: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var snap debugSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return debugSnapshot{}, fmt.Errorf("decode debug snapshot: %w", err)
	}
	return snap, nil
}

type emptyInput struct{}

type currentCategoryOutput struct {
	State    string `json:"state"`
	Category string `json:"category"`
}

type frequencyStatusOutput struct {
	AdsPerHour       uint64 `json:"adsPerHour"`
	AdsPerDay        uint64 `json:"adsPerDay"`
	AdsShownLastHour int    `json:"adsShownLastHour"`
	AdsShownLastDay  int    `json:"adsShownLastDay"`
}

type bundleSummaryOutput struct {
	CatalogID       string   `json:"catalogId"`
	CatalogVersion  uint64   `json:"catalogVersion"`
	LastUpdated     int64    `json:"catalogLastUpdatedTimestamp"`
	CategoryCounts  map[string]int `json:"categoryCounts"`
}

func (c *debugClient) CurrentCategory(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, currentCategoryOutput, error) {
	snap, err := c.fetch(ctx)
	if err != nil {
		return nil, currentCategoryOutput{}, err
	}
	return nil, currentCategoryOutput{State: snap.State, Category: snap.CurrentCategory}, nil
}

func (c *debugClient) FrequencyStatus(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, frequencyStatusOutput, error) {
	snap, err := c.fetch(ctx)
	if err != nil {
		return nil, frequencyStatusOutput{}, err
	}
	return nil, frequencyStatusOutput{
		AdsPerHour:       snap.AdsPerHour,
		AdsPerDay:        snap.AdsPerDay,
		AdsShownLastHour: snap.AdsShownLastHour,
		AdsShownLastDay:  snap.AdsShownLastDay,
	}, nil
}

func (c *debugClient) BundleSummary(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, bundleSummaryOutput, error) {
	snap, err := c.fetch(ctx)
	if err != nil {
		return nil, bundleSummaryOutput{}, err
	}
	counts := make(map[string]int, len(snap.Bundle.Categories))
	for category, ads := range snap.Bundle.Categories {
		counts[category] = len(ads)
	}
	return nil, bundleSummaryOutput{
		CatalogID:      snap.Bundle.CatalogID,
		CatalogVersion: snap.Bundle.CatalogVersion,
		LastUpdated:    snap.Bundle.CatalogLastUpdatedTimestamp,
		CategoryCounts: counts,
	}, nil
}

func main() {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.NameKey = "logger"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("adsengine-mcp-debug").With(zap.String("service", "adsengine-mcp-debug"))

	harnessURL := os.Getenv("HARNESS_URL")
	if harnessURL == "" {
		harnessURL = "http://localhost:8090"
	}

	client := &debugClient{
		baseURL: harnessURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "adsengine-debug",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "current_category",
		Description: "Return the engine's current winner-over-time page classification category",
		InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
	}, client.CurrentCategory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "frequency_status",
		Description: "Return the engine's frequency policy limits and recent ad-shown counts",
		InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
	}, client.FrequencyStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bundle_summary",
		Description: "Return the currently loaded catalog bundle's identity and per-category ad counts",
		InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
	}, client.BundleSummary)

	stdioTransport := &mcp.StdioTransport{}
	var logBuffer bytes.Buffer
	loggingTransport := &mcp.LoggingTransport{
		Transport: stdioTransport,
		Writer:    &logBuffer,
	}

	logger.Info("MCP debug server running via stdio", zap.String("harness_url", harnessURL))

	if err := server.Run(context.Background(), loggingTransport); err != nil {
		logger.Fatal("server error", zap.Error(err), zap.String("mcp_logs", logBuffer.String()))
	}
}
