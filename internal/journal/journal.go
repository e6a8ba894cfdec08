// Package journal persists the per-run audit trail: an append-only event log
// plus checkpoint and report documents, all under one run directory.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/osintworks/trailhound/internal/investigation"
)

// Event names written to the research log.
const (
	EventInitialization  = "initialization"
	EventInvestigation   = "investigation"
	EventConsultation    = "llm_consultation"
	EventLeadsGeneration = "new_leads_generation"
	EventTermination     = "termination"
)

// File names inside the run directory.
const (
	logFile         = "research_log.jsonl"
	stateFile       = "state.json"
	discoveriesFile = "discoveries.json"
	reportFile      = "report.json"
)

// Journal owns one run directory. Log-write failures are reported to the
// logger but never propagated; losing an audit line must not abort a run.
type Journal struct {
	mu  sync.Mutex
	dir string
	out *os.File
	log *zap.Logger
}

// New creates the run directory under baseDir and opens the event log.
func New(baseDir, runID string, log *zap.Logger) (*Journal, error) {
	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	out, err := os.OpenFile(filepath.Join(dir, logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open research log: %w", err)
	}

	return &Journal{dir: dir, out: out, log: log}, nil
}

// Dir returns the run directory path.
func (j *Journal) Dir() string { return j.dir }

// Event appends one structured line to the research log. The event name and
// timestamp are added to the supplied fields.
func (j *Journal) Event(name string, fields map[string]any) {
	record := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		record[k] = v
	}
	record["event"] = name
	record["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	line, err := json.Marshal(record)
	if err != nil {
		j.log.Warn("marshal journal event", zap.String("event", name), zap.Error(err))
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.out.Write(append(line, '\n')); err != nil {
		j.log.Warn("append journal event", zap.String("event", name), zap.Error(err))
	}
}

// WriteState checkpoints the loop state document.
func (j *Journal) WriteState(state any) error {
	return j.writeJSON(stateFile, state)
}

// WriteDiscoveries persists the discovery record, redacting sensitive
// content first.
func (j *Journal) WriteDiscoveries(discoveries []investigation.Discovery) error {
	redacted := make([]investigation.Discovery, len(discoveries))
	for i, d := range discoveries {
		redacted[i] = d.Redacted()
	}
	return j.writeJSON(discoveriesFile, redacted)
}

// WriteReport persists the final report document.
func (j *Journal) WriteReport(report any) error {
	return j.writeJSON(reportFile, report)
}

func (j *Journal) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(j.dir, name), data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Close flushes and closes the event log.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.out.Close(); err != nil {
		return fmt.Errorf("close research log: %w", err)
	}
	return nil
}
