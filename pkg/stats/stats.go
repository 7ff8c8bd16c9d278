// Package stats records one refinement run's statistics (spec section
// 6: elapsed time, verification time, refinement steps, cache hits) and
// persists them either as JSON (the default) or as a protobuf-framed
// record, selected by cmd/synduce's -stats-format flag.
package stats

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Format selects a Record's on-disk encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatProto
)

// Record is one solved (or failed) ψ-def's run statistics, stamped with
// the run id internal/ids.Context.RunID minted for this solve.
type Record struct {
	RunID            string        `json:"run_id"`
	Problem          string        `json:"problem"`
	Hole             string        `json:"hole"`
	Outcome          string        `json:"outcome"`
	Elapsed          time.Duration `json:"elapsed_ns"`
	VerificationTime time.Duration `json:"verification_time_ns"`
	RefinementSteps  int           `json:"refinement_steps"`
	CacheHits        int           `json:"cache_hits"`
	CacheMisses      int           `json:"cache_misses"`
}

// Write persists r to path in format, creating or truncating the file.
func Write(path string, r Record, format Format) error {
	var data []byte
	var err error
	switch format {
	case FormatProto:
		data, err = r.ExportProto()
	default:
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "stats: encoding record")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "stats: writing %s", path)
	}
	return nil
}

// Collector accumulates the counters recorded through
// AddVerificationTime, RecordCacheHit and RecordCacheMiss, turned into a
// Record by Finish once the run settles.
type Collector struct {
	start           time.Time
	verificationDur time.Duration
	cacheHits       int
	cacheMisses     int
}

// NewCollector starts a collector's elapsed-time clock.
func NewCollector() *Collector { return &Collector{start: nowFunc()} }

// AddVerificationTime accumulates time spent in a single Verify call.
func (c *Collector) AddVerificationTime(d time.Duration) { c.verificationDur += d }

// RecordCacheHit/RecordCacheMiss track pkg/solvers/cache lookups for a run.
func (c *Collector) RecordCacheHit()  { c.cacheHits++ }
func (c *Collector) RecordCacheMiss() { c.cacheMisses++ }

// Finish builds the Record for a completed run.
func (c *Collector) Finish(runID, problem, hole, outcome string, steps int) Record {
	return Record{
		RunID:            runID,
		Problem:          problem,
		Hole:             hole,
		Outcome:          outcome,
		Elapsed:          nowFunc().Sub(c.start),
		VerificationTime: c.verificationDur,
		RefinementSteps:  steps,
		CacheHits:        c.cacheHits,
		CacheMisses:      c.cacheMisses,
	}
}

// nowFunc is a seam for deterministic tests.
var nowFunc = time.Now
