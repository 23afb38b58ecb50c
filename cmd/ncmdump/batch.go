package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// batchJob is one line of a `dump --batch` stdin stream, grounded in the
// teacher's cmd/um/batch.go FileTask/ProcessOptions shapes but flattened to
// spec.md §5's single-threaded core: jobs run one at a time, in order.
type batchJob struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path,omitempty"`
}

// batchResult is one line of `dump --batch`'s stdout stream.
type batchResult struct {
	InputPath   string `json:"input_path"`
	OutputPath  string `json:"output_path,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	ProcessTime int64  `json:"process_time_ms"`
}

// runBatchMode reads one JSON batchJob per line from stdin and writes one
// JSON batchResult per line to stdout, per SPEC_FULL.md §4.8. It returns a
// non-nil error (without aborting early) if any job failed, so the process
// exits non-zero while still reporting every result, per spec.md §7's
// "batch operations collect per-item failures" policy.
func runBatchMode(logger *zap.Logger, writeTags bool) error {
	scanner := bufio.NewScanner(os.Stdin)
	encoder := json.NewEncoder(os.Stdout)

	var failures int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var job batchJob
		if err := json.Unmarshal(line, &job); err != nil {
			failures++
			_ = encoder.Encode(batchResult{Error: fmt.Sprintf("parse job: %v", err)})
			continue
		}

		result := runBatchJob(job, writeTags, logger)
		if !result.Success {
			failures++
		}
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("batch: write result: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("batch: read stdin: %w", err)
	}

	if failures > 0 {
		return fmt.Errorf("batch: %d job(s) failed", failures)
	}
	return nil
}

func runBatchJob(job batchJob, writeTags bool, logger *zap.Logger) batchResult {
	start := time.Now()
	result := batchResult{InputPath: job.InputPath}

	outDir := job.OutputPath
	outPath, _, err := decryptOne(job.InputPath, outDir, writeTags, logger)
	result.ProcessTime = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.OutputPath = outPath
	return result
}
