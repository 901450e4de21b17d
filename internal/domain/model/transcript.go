package model

// TranscriptSegment is a timestamped span of dialogue text.
// Sequences of segments are ordered and never re-sorted between stages.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func (s TranscriptSegment) Valid() bool {
	return s.Start >= 0 && s.End >= 0 && s.Start <= s.End
}
