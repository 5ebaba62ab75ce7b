// Command query-events looks up the engine's recorded reporting events
// (notify, load, ...) from ClickHouse over a given window, adapted
// from the teacher codebase's tools/query_events (same flag-driven one-shot
// ClickHouse lookup, printed as indented JSON) but retargeted from RTB
// request-ID lookups to the engine's event-type/time-range queries.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/patrickwarner/adsengine/internal/hostadapters/chreporting"
	"github.com/patrickwarner/adsengine/internal/observability"
)

func main() {
	logger, err := observability.InitLoggerWithService("query-events")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var eventType string
	var dsn string
	var windowHours int
	flag.StringVar(&eventType, "type", "notify", "event type to query (notify, load, settings, ...)")
	flag.StringVar(&dsn, "dsn", "clickhouse://localhost:9000/default", "ClickHouse DSN")
	flag.IntVar(&windowHours, "hours", 24, "lookback window in hours")
	flag.Parse()

	sink, err := chreporting.Open(dsn, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect clickhouse: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = sink.Close() }()

	since := time.Now().Add(-time.Duration(windowHours) * time.Hour)
	events, err := sink.QueryByCategory(eventType, since, time.Duration(windowHours)*time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query events: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		fmt.Fprintf(os.Stderr, "encode events: %v\n", err)
		os.Exit(1)
	}
}
