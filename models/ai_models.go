package models

import "time"

// AiAnalysis contains the qualitative insights from the Gemini model.
type AiAnalysis struct {
	Summary         string   `json:"summary"`
	LikelyCauses    []string `json:"likely_causes"`
	Recommendations []string `json:"recommendations"`
}

// StockoutNarrativeResponse is the structure for the AI narrative endpoint.
type StockoutNarrativeResponse struct {
	ReportID    int64      `json:"reportId"`
	ProductID   int64      `json:"productId"`
	GeneratedAt time.Time  `json:"generatedAt"`
	AiAnalysis  AiAnalysis `json:"aiAnalysis"`
}
