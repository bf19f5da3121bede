package classify

import (
	"context"
	"time"
)

// Source queries one external metadata service about a performer.
type Source interface {
	// Name identifies the source in logs and stored results.
	Name() string
	// Classify looks the performer up and reports what the service says.
	// Lookup failures are reported in the result, not returned as errors, so
	// one broken service never sinks a whole classification run.
	Classify(ctx context.Context, name, performerID string) Result
}

// Result is a single source's answer about a performer.
type Result struct {
	Source    string
	Success   bool
	Label     string
	Signals   []string
	URL       string
	QueryTime time.Duration
	Err       string
}

// FailedResult builds a Result for a lookup that did not produce an answer.
func FailedResult(source string, elapsed time.Duration, err error) Result {
	result := Result{Source: source, QueryTime: elapsed}
	if err != nil {
		result.Err = err.Error()
	}
	return result
}
