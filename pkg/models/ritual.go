package models

import "time"

// BPMCandidate is one tempo option on the vote ballot. Index is 1-based and
// is the handle agents vote with.
type BPMCandidate struct {
	Index       int    `json:"index"`
	BPM         int    `json:"bpm"`
	Count       int    `json:"count"`
	NominatedBy string `json:"nominatedBy"`
	Votes       int    `json:"votes"`
}

// KeyCandidate is one key/scale option on the vote ballot.
type KeyCandidate struct {
	Index       int    `json:"index"`
	Key         string `json:"key"`
	Scale       string `json:"scale"`
	Count       int    `json:"count"`
	NominatedBy string `json:"nominatedBy"`
	Votes       int    `json:"votes"`
}

// Nomination is the public view of one submission; agent IDs are stripped,
// the bot name stays.
type Nomination struct {
	NominatedBy string    `json:"nominatedBy"`
	BPM         int       `json:"bpm,omitempty"`
	Key         string    `json:"key,omitempty"`
	Scale       string    `json:"scale,omitempty"`
	Reasoning   string    `json:"reasoning,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// RitualWinner reports one track's outcome.
type RitualWinner struct {
	BPM     int    `json:"bpm,omitempty"`
	Key     string `json:"key,omitempty"`
	Scale   string `json:"scale,omitempty"`
	Votes   int    `json:"votes"`
	Random  bool   `json:"random"`
	Nominee string `json:"nominatedBy,omitempty"`
}

// RitualView is the public voting-cycle view, tailored to the requesting
// agent where has-flags are concerned.
type RitualView struct {
	RitualID              string         `json:"ritualId,omitempty"`
	Phase                 RitualPhase    `json:"phase"`
	RitualNumber          int            `json:"ritualNumber"`
	PhaseStartedAt        *time.Time     `json:"phaseStartedAt,omitempty"`
	PhaseEndsAt           *time.Time     `json:"phaseEndsAt,omitempty"`
	PhaseRemainingSeconds float64        `json:"phaseRemainingSeconds"`
	BPMNominations        []Nomination   `json:"bpmNominations"`
	KeyNominations        []Nomination   `json:"keyNominations"`
	BPMCandidates         []BPMCandidate `json:"bpmCandidates"`
	KeyCandidates         []KeyCandidate `json:"keyCandidates"`
	BPMWinner             *RitualWinner  `json:"bpmWinner,omitempty"`
	KeyWinner             *RitualWinner  `json:"keyWinner,omitempty"`
	HasNominatedBPM       bool           `json:"hasNominatedBpm"`
	HasNominatedKey       bool           `json:"hasNominatedKey"`
	HasVotedBPM           bool           `json:"hasVotedBpm"`
	HasVotedKey           bool           `json:"hasVotedKey"`
	Epoch                 Epoch          `json:"epoch"`
	PreviousEpoch         *Epoch         `json:"previousEpoch,omitempty"`
}
