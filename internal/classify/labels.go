package classify

// Labels a source or the LLM can assign to a performer. Anything in
// artificialLabels counts as an artificial vote; "human" and "band" count as
// human votes. Other labels are ignored by the tally.
const (
	LabelVocaloid    = "vocaloid"
	LabelVTuber      = "vtuber"
	LabelVirtualIdol = "virtual_idol"
	LabelVirtual     = "virtual"
	LabelFictional   = "fictional"
	LabelAIGenerated = "ai_generated"
	LabelVirtualBand = "virtual_band"
	LabelHuman       = "human"
	LabelBand        = "band"
	LabelUnknown     = "unknown"
	LabelOverride    = "override"
)

var artificialLabels = map[string]struct{}{
	LabelVocaloid:    {},
	LabelVTuber:      {},
	LabelVirtualIdol: {},
	LabelVirtual:     {},
	LabelFictional:   {},
	LabelAIGenerated: {},
	LabelVirtualBand: {},
}

// IsArtificialLabel reports whether the label counts as an artificial vote.
func IsArtificialLabel(label string) bool {
	_, ok := artificialLabels[label]
	return ok
}

// IsHumanLabel reports whether the label counts as a human vote.
func IsHumanLabel(label string) bool {
	return label == LabelHuman || label == LabelBand
}
