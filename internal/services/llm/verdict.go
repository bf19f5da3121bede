package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// classifySystemPrompt instructs the model to judge whether a performer is an
// artificial act. The schema matches what parseVerdict validates.
const classifySystemPrompt = `You are a music metadata expert. Given a performer name and evidence
gathered from public databases, decide whether the performer is an artificial act
(vocaloid, VTuber, virtual idol, fictional band, AI-generated) or a human artist.

Respond with JSON only, using exactly this schema:
{
  "label": "virtual_idol" | "vocaloid" | "vtuber" | "fictional" | "ai_generated" | "virtual_band" | "human" | "band" | "unknown",
  "is_artificial": true | false | null,
  "confidence": 0.0 to 1.0,
  "reason": "one or two sentences explaining the verdict",
  "citations": ["facts from the evidence that support the verdict"],
  "ambiguity_notes": "anything that made this hard to decide, or empty string"
}

Be conservative: if the evidence is insufficient or contradictory, use label
"unknown", is_artificial null, and a low confidence. Never invent facts that
are not in the evidence.`

// Verdict is the model's judgement on a single performer, together with the
// request metadata needed to persist an audit record.
type Verdict struct {
	Label          string
	IsArtificial   *bool
	Confidence     float64
	Reason         string
	Citations      []string
	AmbiguityNotes string

	Model   string
	Prompt  string
	Raw     string
	Elapsed time.Duration
}

// ErrInvalidVerdict indicates the model responded but the payload failed
// validation. Callers should treat the performer as unresolved.
var ErrInvalidVerdict = errors.New("llm verdict: invalid payload")

// ClassifyPerformer asks the model whether the named performer is artificial.
// evidence is a plain-text summary of what the metadata sources reported.
func (c *Client) ClassifyPerformer(ctx context.Context, name, evidence string) (*Verdict, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("llm verdict: performer name required")
	}
	evidence = strings.TrimSpace(evidence)
	if evidence == "" {
		evidence = "No source returned usable evidence for this performer."
	}

	userPrompt := fmt.Sprintf("Performer: %s\n\nEvidence:\n%s", name, evidence)
	started := time.Now()
	content, err := c.CompleteJSON(ctx, classifySystemPrompt, userPrompt)
	elapsed := time.Since(started)
	if err != nil {
		return nil, err
	}

	verdict, err := parseVerdict(content, c.cfg.RequireCitations)
	if err != nil {
		return nil, err
	}
	verdict.Model = c.cfg.Model
	verdict.Prompt = userPrompt
	verdict.Elapsed = elapsed
	return verdict, nil
}

type verdictPayload struct {
	Label          string   `json:"label"`
	IsArtificial   *bool    `json:"is_artificial"`
	Confidence     float64  `json:"confidence"`
	Reason         string   `json:"reason"`
	Citations      []string `json:"citations"`
	AmbiguityNotes string   `json:"ambiguity_notes"`
}

var verdictRequiredFields = []string{"label", "is_artificial", "confidence", "reason", "citations"}

func parseVerdict(content string, requireCitations bool) (*Verdict, error) {
	var fields map[string]json.RawMessage
	if err := DecodeLLMJSON(content, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVerdict, err)
	}
	for _, field := range verdictRequiredFields {
		if _, ok := fields[field]; !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrInvalidVerdict, field)
		}
	}

	var payload verdictPayload
	if err := DecodeLLMJSON(content, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVerdict, err)
	}
	// is_artificial must be a bool or null; a string like "true" fails the
	// typed decode above, but guard the raw token too.
	if raw := strings.TrimSpace(string(fields["is_artificial"])); raw != "true" && raw != "false" && raw != "null" {
		return nil, fmt.Errorf("%w: is_artificial must be true, false, or null", ErrInvalidVerdict)
	}
	if raw := strings.TrimSpace(string(fields["citations"])); !strings.HasPrefix(raw, "[") {
		return nil, fmt.Errorf("%w: citations must be a list", ErrInvalidVerdict)
	}
	if requireCitations && len(payload.Citations) == 0 {
		return nil, fmt.Errorf("%w: citations required but empty", ErrInvalidVerdict)
	}

	label := strings.TrimSpace(strings.ToLower(payload.Label))
	if label == "" {
		return nil, fmt.Errorf("%w: empty label", ErrInvalidVerdict)
	}

	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &Verdict{
		Label:          label,
		IsArtificial:   payload.IsArtificial,
		Confidence:     confidence,
		Reason:         strings.TrimSpace(payload.Reason),
		Citations:      payload.Citations,
		AmbiguityNotes: strings.TrimSpace(payload.AmbiguityNotes),
		Raw:            strings.TrimSpace(content),
	}, nil
}
