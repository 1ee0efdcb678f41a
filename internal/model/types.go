package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// CensusRecord summarizes one batch simulation run over a machine corpus.
type CensusRecord struct {
	VersionedRecord
	ID           string `json:"id"`
	CreatedAtUTC string `json:"created_at_utc"`
	Backend      string `json:"backend"`
	MaxSteps     int    `json:"max_steps"`
	Machines     int    `json:"machines"`
	Halted       int    `json:"halted"`
}

// MachineResult is the observed behavior of one machine within a census:
// whether it halted within the step budget, how many steps it took and how
// many non-blank cells it left behind. Err carries a per-machine failure
// (bad table text, verification mismatch) without failing the batch.
type MachineResult struct {
	VersionedRecord
	Text    string `json:"text"`
	Halted  bool   `json:"halted"`
	Steps   int    `json:"steps"`
	Nonzero int    `json:"nonzero"`
	Err     string `json:"err,omitempty"`
}
