// Package schemas embeds the JSON Schemas for the engine's input and output documents.
package schemas

import "embed"

// FS holds every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Schema file names.
const (
	Aggregates = "aggregates.schema.json"
	Insights   = "insights.schema.json"
	Trend      = "trend.schema.json"
)

// Names lists the embedded schemas.
var Names = []string{Aggregates, Insights, Trend}
