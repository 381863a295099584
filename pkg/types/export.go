package types

// ExportDocument is the portable snapshot of a whole store. On import
// every section is optional.
type ExportDocument struct {
	Notes          []*Note          `json:"notes"`
	Screenshots    []*Screenshot    `json:"screenshots"`
	Transcriptions []*Transcription `json:"transcriptions"`
	Summaries      []*Summary       `json:"summaries"`
	Settings       *Settings        `json:"settings,omitempty"`
}
