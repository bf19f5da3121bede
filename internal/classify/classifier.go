package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"skipper/internal/logging"
	"skipper/internal/services/llm"
	"skipper/internal/store"
)

// LLMClient is the fallback model used when the sources cannot agree.
type LLMClient interface {
	ClassifyPerformer(ctx context.Context, name, evidence string) (*llm.Verdict, error)
	Model() string
}

// Classifier aggregates source answers into a decision for a performer.
// Overrides win over everything, cached decisions win over fresh lookups,
// and the LLM is consulted only when the sources are inconclusive.
type Classifier struct {
	store   *store.Store
	sources []Source
	llm     LLMClient
	logger  *slog.Logger

	minAgreement  int
	bandPolicy    bool
	cacheDuration time.Duration

	now func() time.Time
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithLLM installs an LLM fallback client.
func WithLLM(client LLMClient) Option {
	return func(c *Classifier) {
		c.llm = client
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		c.now = now
	}
}

// New builds a Classifier over the given sources.
func New(st *store.Store, srcs []Source, minAgreement int, bandPolicy bool, cacheDuration time.Duration, logger *slog.Logger, opts ...Option) *Classifier {
	if minAgreement < 1 {
		minAgreement = 1
	}
	c := &Classifier{
		store:         st,
		sources:       srcs,
		logger:        logging.NewComponentLogger(logger, "classify"),
		minAgreement:  minAgreement,
		bandPolicy:    bandPolicy,
		cacheDuration: cacheDuration,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify decides whether the performer is an artificial act. The returned
// results are the per-source answers behind the decision; they are empty when
// the decision came from an override or the cache.
func (c *Classifier) Classify(ctx context.Context, performerID, performerName string) (*store.Decision, []Result, error) {
	// Spotify sometimes delivers decomposed Unicode in artist names, which
	// breaks exact label matching on the source side.
	performerName = norm.NFC.String(strings.TrimSpace(performerName))

	override, err := c.store.GetOverride(ctx, performerID)
	if err != nil {
		return nil, nil, fmt.Errorf("classify %s: %w", performerID, err)
	}
	if override != nil {
		c.logger.Info("using override",
			logging.String(logging.FieldPerformer, performerName),
			logging.Bool("is_artificial", override.IsArtificial),
		)
		return c.overrideDecision(performerID, override), nil, nil
	}

	cached, err := c.store.CachedDecision(ctx, performerID)
	if err != nil {
		return nil, nil, fmt.Errorf("classify %s: %w", performerID, err)
	}
	if cached != nil {
		c.logger.Debug("using cached decision",
			logging.String(logging.FieldPerformer, performerName),
			logging.String("label", cached.Label),
		)
		return cached, nil, nil
	}

	c.logger.Info("classifying performer",
		logging.String(logging.FieldPerformer, performerName),
		logging.String("performer_id", performerID),
	)
	results := c.querySources(ctx, performerName, performerID)
	decision := c.aggregate(performerID, results)

	var verdict *llm.Verdict
	if decision.IsArtificial == nil && c.llm != nil {
		verdict = c.llmFallback(ctx, performerName, results, decision)
	}

	c.persist(ctx, performerID, performerName, decision, results, verdict)
	return decision, results, nil
}

func (c *Classifier) overrideDecision(performerID string, override *store.Override) *store.Decision {
	isArtificial := override.IsArtificial
	reason := override.Reason
	if reason == "" {
		reason = "Manual classification"
	}
	return &store.Decision{
		ID:              "override_" + performerID,
		PerformerID:     performerID,
		Timestamp:       c.now().UTC(),
		Label:           LabelOverride,
		IsArtificial:    &isArtificial,
		Confidence:      1.0,
		SourcesAgreeing: 0,
		MinRequired:     c.minAgreement,
		Reason:          "User override: " + reason,
	}
}

// querySources fans out to every enabled source concurrently and waits for
// all of them. A source that panics or fails only costs its own vote.
func (c *Classifier) querySources(ctx context.Context, name, performerID string) []Result {
	results := make([]Result, len(c.sources))
	var wg sync.WaitGroup
	for i, source := range c.sources {
		wg.Add(1)
		go func(i int, source Source) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = FailedResult(source.Name(), 0, fmt.Errorf("panic: %v", r))
				}
			}()
			results[i] = source.Classify(ctx, name, performerID)
			if results[i].Source == "" {
				results[i].Source = source.Name()
			}
		}(i, source)
	}
	wg.Wait()

	for _, result := range results {
		if result.Success {
			c.logger.Debug("source answered",
				logging.String(logging.FieldSource, result.Source),
				logging.String("label", result.Label),
				logging.Duration(logging.FieldDuration, result.QueryTime),
			)
		} else {
			c.logger.Warn("source failed",
				logging.String(logging.FieldSource, result.Source),
				logging.String("error", result.Err),
			)
		}
	}
	return results
}

func (c *Classifier) aggregate(performerID string, results []Result) *store.Decision {
	var (
		artificialVotes int
		humanVotes      int
		successful      int
		labelsFound     []string
	)
	for _, result := range results {
		if !result.Success {
			continue
		}
		successful++
		switch {
		case IsArtificialLabel(result.Label):
			artificialVotes++
			labelsFound = append(labelsFound, result.Label)
		case IsHumanLabel(result.Label):
			humanVotes++
		}
	}

	enabled := len(c.sources)
	if enabled == 0 {
		enabled = 1
	}

	decision := &store.Decision{
		ID:          "decision_" + uuid.NewString(),
		PerformerID: performerID,
		Timestamp:   c.now().UTC(),
		Label:       LabelUnknown,
		MinRequired: c.minAgreement,
		CachedUntil: c.now().UTC().Add(c.cacheDuration),
	}

	switch {
	case artificialVotes >= c.minAgreement:
		decision.IsArtificial = boolPtr(true)
		decision.Confidence = capFloat(float64(artificialVotes)/float64(enabled), 1.0)
		decision.Label = firstLabel(labelsFound)
		decision.SourcesAgreeing = artificialVotes
	case c.bandPolicy && artificialVotes > 0 && humanVotes == 0:
		decision.IsArtificial = boolPtr(true)
		decision.Confidence = capFloat(float64(artificialVotes)/float64(enabled), 0.8)
		decision.Label = firstLabel(labelsFound)
		decision.SourcesAgreeing = artificialVotes
		decision.BandPolicyApplied = true
	case humanVotes >= c.minAgreement:
		decision.IsArtificial = boolPtr(false)
		decision.Confidence = capFloat(float64(humanVotes)/float64(enabled), 1.0)
		decision.Label = LabelHuman
		decision.SourcesAgreeing = humanVotes
	default:
		decision.SourcesAgreeing = humanVotes
	}

	decision.Reason = c.decisionReason(decision, artificialVotes, humanVotes, successful, labelsFound)
	return decision
}

func (c *Classifier) decisionReason(decision *store.Decision, artificialVotes, humanVotes, successful int, labelsFound []string) string {
	var parts []string
	if decision.IsArtificial != nil {
		if *decision.IsArtificial {
			parts = append(parts, fmt.Sprintf(
				"Classified as artificial: %d/%d sources agree. Labels: %s",
				artificialVotes, successful, strings.Join(dedupe(labelsFound), ", "),
			))
		} else {
			parts = append(parts, fmt.Sprintf(
				"Classified as human: %d/%d sources agree",
				humanVotes, successful,
			))
		}
		if decision.BandPolicyApplied {
			parts = append(parts, "Band policy applied (any virtual/fictional = artificial)")
		}
		parts = append(parts, fmt.Sprintf("Threshold: %d sources required", c.minAgreement))
	} else {
		parts = append(parts, fmt.Sprintf(
			"Inconclusive: %d artificial, %d human out of %d successful sources. Threshold: %d required",
			artificialVotes, humanVotes, successful, c.minAgreement,
		))
	}
	return strings.Join(parts, ". ")
}

// llmFallback asks the model to break an inconclusive tally. An invalid or
// failed verdict leaves the inconclusive decision standing.
func (c *Classifier) llmFallback(ctx context.Context, performerName string, results []Result, decision *store.Decision) *llm.Verdict {
	verdict, err := c.llm.ClassifyPerformer(ctx, performerName, evidenceSummary(results))
	if err != nil {
		c.logger.Warn("llm fallback failed",
			logging.String(logging.FieldPerformer, performerName),
			logging.Error(err),
		)
		return nil
	}

	decision.LLMUsed = true
	decision.Label = verdict.Label
	decision.IsArtificial = verdict.IsArtificial
	decision.Confidence = verdict.Confidence
	if verdict.Reason != "" {
		decision.Reason = decision.Reason + ". LLM fallback: " + verdict.Reason
	}
	c.logger.Info("llm fallback verdict",
		logging.String(logging.FieldPerformer, performerName),
		logging.String("label", verdict.Label),
		logging.Float64("confidence", verdict.Confidence),
	)
	return verdict
}

// evidenceSummary renders the source answers as plain text for the LLM.
func evidenceSummary(results []Result) string {
	var lines []string
	for _, result := range results {
		if !result.Success {
			lines = append(lines, fmt.Sprintf("- %s: lookup failed (%s)", result.Source, result.Err))
			continue
		}
		line := fmt.Sprintf("- %s: %s", result.Source, result.Label)
		if len(result.Signals) > 0 {
			line += ", signals: " + strings.Join(result.Signals, ", ")
		}
		if result.URL != "" {
			line += " (" + result.URL + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// persist writes the decision and its evidence. Failures are logged rather
// than returned so a broken database never blocks playback handling.
func (c *Classifier) persist(ctx context.Context, performerID, performerName string, decision *store.Decision, results []Result, verdict *llm.Verdict) {
	if err := c.store.EnsurePerformer(ctx, performerID, performerName, ""); err != nil {
		c.logger.Error("persist decision", logging.Error(err))
		return
	}
	if err := c.store.InsertDecision(ctx, *decision); err != nil {
		c.logger.Error("persist decision", logging.Error(err))
		return
	}
	for _, result := range results {
		signals, _ := json.Marshal(result.Signals)
		if err := c.store.InsertSourceResult(ctx, store.SourceResult{
			DecisionID:  decision.ID,
			SourceName:  result.Source,
			Success:     result.Success,
			Result:      result.Label,
			Signals:     string(signals),
			URL:         result.URL,
			QueryTimeMS: result.QueryTime.Milliseconds(),
		}); err != nil {
			c.logger.Error("persist source result", logging.Error(err))
		}
	}
	if verdict != nil {
		if err := c.store.InsertLLMOutput(ctx, store.LLMOutput{
			DecisionID:      decision.ID,
			Model:           verdict.Model,
			Prompt:          verdict.Prompt,
			Output:          verdict.Raw,
			TotalDurationMS: verdict.Elapsed.Milliseconds(),
		}); err != nil {
			c.logger.Error("persist llm output", logging.Error(err))
		}
	}
}

func boolPtr(value bool) *bool {
	return &value
}

func capFloat(value, limit float64) float64 {
	if value > limit {
		return limit
	}
	return value
}

func firstLabel(labels []string) string {
	if len(labels) == 0 {
		return "artificial"
	}
	return labels[0]
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
