package investigation

import "time"

// Status is a point-in-time view of a running investigation, served by the
// status API.
type Status struct {
	RunID         string    `json:"run_id"`
	Objective     string    `json:"objective"`
	Entity        string    `json:"entity"`
	State         string    `json:"state"`
	Iteration     int       `json:"iteration"`
	FrontierDepth int       `json:"frontier_depth"`
	Discoveries   int       `json:"discoveries"`
	StartedAt     time.Time `json:"started_at"`
}

// Report is the final document produced when a run terminates.
type Report struct {
	RunID             string               `json:"run_id"`
	Objective         string               `json:"objective"`
	Entity            string               `json:"entity"`
	GeneratedAt       time.Time            `json:"generated_at"`
	Iterations        int                  `json:"iterations"`
	TerminationReason string               `json:"termination_reason"`
	TotalDiscoveries  int                  `json:"total_discoveries"`
	CountsByType      map[ArtifactType]int `json:"counts_by_type"`
	TopDiscoveries    []Discovery          `json:"top_discoveries"`
	Aliases           []string             `json:"aliases"`
	NarrativeSummary  string               `json:"narrative_summary"`
}
