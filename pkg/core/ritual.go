package core

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/synthmob/synthmob/pkg/events"
	"github.com/synthmob/synthmob/pkg/models"
)

// Ritual timing defaults.
const (
	DefaultRitualInterval   = 10 * time.Minute
	DefaultNominateDuration = 90 * time.Second
	DefaultVoteDuration     = 60 * time.Second
	DefaultResultDisplay    = 30 * time.Second

	ritualCandidateLimit = 3
	maxReasoningLength   = 280
)

// RitualConfig sets the cycle cadence and phase durations.
type RitualConfig struct {
	Interval         time.Duration
	NominateDuration time.Duration
	VoteDuration     time.Duration
	ResultDisplay    time.Duration
}

// DefaultRitualConfig returns the production cadence.
func DefaultRitualConfig() RitualConfig {
	return RitualConfig{
		Interval:         DefaultRitualInterval,
		NominateDuration: DefaultNominateDuration,
		VoteDuration:     DefaultVoteDuration,
		ResultDisplay:    DefaultResultDisplay,
	}
}

// CoreHooks is the ritual's window back into the core. Step runs under the
// facade lock, so implementations must not re-enter locked operations.
type CoreHooks interface {
	GetOnlineAgentCount() int
	GetCurrentEpoch() models.Epoch
	ApplyNewEpoch(bpm int, key, scale string, scaleNotes []string)
	Broadcast(event string, payload any)
}

type ritualNomination struct {
	agentID     string
	botName     string
	bpm         int
	key         string
	scale       string
	reasoning   string
	submittedAt time.Time
}

type ritualCandidate struct {
	index       int
	bpm         int
	key         string
	scale       string
	count       int
	nominatedBy string
	nominators  map[string]bool
	firstAt     time.Time
	votes       int
}

// RitualSubmission reports the normalized tracks a nomination landed on.
type RitualSubmission struct {
	BPM       *int
	Key       string
	Scale     string
	Reasoning string
}

// Ritual runs the periodic world-parameter voting cycle:
// idle, nominate, vote, result, idle. Phase advancement happens in Step,
// driven by the scheduler; submissions arrive through Nominate and Vote.
type Ritual struct {
	rng *rand.Rand

	ritualID       string
	phase          models.RitualPhase
	ritualNumber   int
	phaseStartedAt time.Time
	phaseEndsAt    time.Time
	nextCycleAt    time.Time
	previousEpoch  *models.Epoch

	bpmNominations []ritualNomination
	keyNominations []ritualNomination
	bpmCandidates  []ritualCandidate
	keyCandidates  []ritualCandidate
	bpmVotes       map[string]int
	keyVotes       map[string]int
	bpmWinner      *models.RitualWinner
	keyWinner      *models.RitualWinner

	interval time.Duration
	nominate time.Duration
	vote     time.Duration
	result   time.Duration
}

// NewRitual creates an idle cycle whose first fire is one interval from now.
func NewRitual(cfg RitualConfig, rng *rand.Rand, now time.Time) *Ritual {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRitualInterval
	}
	if cfg.NominateDuration <= 0 {
		cfg.NominateDuration = DefaultNominateDuration
	}
	if cfg.VoteDuration <= 0 {
		cfg.VoteDuration = DefaultVoteDuration
	}
	if cfg.ResultDisplay <= 0 {
		cfg.ResultDisplay = DefaultResultDisplay
	}
	r := &Ritual{
		rng:      rng,
		interval: cfg.Interval,
		nominate: cfg.NominateDuration,
		vote:     cfg.VoteDuration,
		result:   cfg.ResultDisplay,
	}
	r.Reset(now)
	return r
}

// Reset returns the cycle to idle and schedules the next fire.
func (r *Ritual) Reset(now time.Time) {
	r.phase = models.RitualIdle
	r.ritualID = ""
	r.ritualNumber = 0
	r.phaseStartedAt = time.Time{}
	r.phaseEndsAt = time.Time{}
	r.nextCycleAt = now.Add(r.interval)
	r.previousEpoch = nil
	r.clearSubmissions()
}

func (r *Ritual) clearSubmissions() {
	r.bpmNominations = nil
	r.keyNominations = nil
	r.bpmCandidates = nil
	r.keyCandidates = nil
	r.bpmVotes = make(map[string]int)
	r.keyVotes = make(map[string]int)
	r.bpmWinner = nil
	r.keyWinner = nil
}

// Step advances the phase machine if a deadline has passed. A panic in any
// transition is contained: the cycle drops back to idle and waits for the
// next interval rather than wedging the scheduler.
func (r *Ritual) Step(now time.Time, hooks CoreHooks) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Ritual step panicked, resetting to idle", "panic", rec, "phase", r.phase)
			r.phase = models.RitualIdle
			r.clearSubmissions()
		}
	}()

	switch r.phase {
	case models.RitualIdle:
		if now.Before(r.nextCycleAt) {
			return
		}
		r.nextCycleAt = now.Add(r.interval)
		r.ritualNumber++
		if hooks.GetOnlineAgentCount() == 0 {
			r.fizzle(hooks)
			return
		}
		epoch := hooks.GetCurrentEpoch()
		r.previousEpoch = &epoch
		r.ritualID = uuid.New().String()
		r.clearSubmissions()
		r.enterPhase(models.RitualNominate, now, r.nominate, hooks)

	case models.RitualNominate:
		if now.Before(r.phaseEndsAt) {
			return
		}
		r.tally(now, hooks)

	case models.RitualVote:
		if now.Before(r.phaseEndsAt) {
			return
		}
		r.resolve(now, hooks)

	case models.RitualResult:
		if now.Before(r.phaseEndsAt) {
			return
		}
		r.phase = models.RitualIdle
		r.phaseStartedAt = time.Time{}
		r.phaseEndsAt = time.Time{}
		hooks.Broadcast(events.EventRitualPhase, events.RitualPhasePayload{
			Phase:        models.RitualIdle,
			RitualNumber: r.ritualNumber,
		})
	}
}

func (r *Ritual) enterPhase(phase models.RitualPhase, now time.Time, d time.Duration, hooks CoreHooks) {
	r.phase = phase
	r.phaseStartedAt = now
	r.phaseEndsAt = now.Add(d)
	ends := r.phaseEndsAt
	hooks.Broadcast(events.EventRitualPhase, events.RitualPhasePayload{
		Phase:        phase,
		RitualNumber: r.ritualNumber,
		PhaseEndsAt:  &ends,
	})
}

// fizzle applies a random epoch and skips the cycle.
func (r *Ritual) fizzle(hooks CoreHooks) {
	bpm := models.MinBPM + r.rng.IntN(models.MaxBPM-models.MinBPM+1)
	key := models.ChromaticKeys[r.rng.IntN(len(models.ChromaticKeys))]
	scale := models.ScaleModes[r.rng.IntN(len(models.ScaleModes))]
	hooks.ApplyNewEpoch(bpm, key, scale, models.ScaleNotes(key, scale))

	r.phase = models.RitualIdle
	r.phaseStartedAt = time.Time{}
	r.phaseEndsAt = time.Time{}
	r.clearSubmissions()
	hooks.Broadcast(events.EventRitualPhase, events.RitualPhasePayload{
		Phase:        models.RitualIdle,
		RitualNumber: r.ritualNumber,
		Fizzled:      true,
		Randomized:   &events.RandomizedEpoch{BPM: bpm, Key: key, Scale: scale},
	})
}

// tally groups nominations into ballots of at most three candidates per
// track. A cycle where both tracks end up with fewer than two unique
// candidates fizzles instead of entering the vote.
func (r *Ritual) tally(now time.Time, hooks CoreHooks) {
	r.bpmCandidates = groupBPM(r.bpmNominations)
	r.keyCandidates = groupKeys(r.keyNominations)

	if len(r.bpmCandidates) < 2 && len(r.keyCandidates) < 2 {
		r.fizzle(hooks)
		return
	}
	r.enterPhase(models.RitualVote, now, r.vote, hooks)
}

// resolve closes the vote: each track applies its winner, or a fresh random
// value when nobody voted on it.
func (r *Ritual) resolve(now time.Time, hooks CoreHooks) {
	bpm := models.MinBPM + r.rng.IntN(models.MaxBPM-models.MinBPM+1)
	bpmWinner := models.RitualWinner{BPM: bpm, Random: true}
	if len(r.bpmVotes) > 0 {
		c := topVoted(r.bpmCandidates)
		bpmWinner = models.RitualWinner{BPM: c.bpm, Votes: c.votes, Nominee: c.nominatedBy}
	}

	key := models.ChromaticKeys[r.rng.IntN(len(models.ChromaticKeys))]
	scale := models.ScaleModes[r.rng.IntN(len(models.ScaleModes))]
	keyWinner := models.RitualWinner{Key: key, Scale: scale, Random: true}
	if len(r.keyVotes) > 0 {
		c := topVoted(r.keyCandidates)
		keyWinner = models.RitualWinner{Key: c.key, Scale: c.scale, Votes: c.votes, Nominee: c.nominatedBy}
	}

	r.bpmWinner = &bpmWinner
	r.keyWinner = &keyWinner
	notes := models.ScaleNotes(keyWinner.Key, keyWinner.Scale)
	hooks.ApplyNewEpoch(bpmWinner.BPM, keyWinner.Key, keyWinner.Scale, notes)

	r.enterPhase(models.RitualResult, now, r.result, hooks)
}

// Nominate records a submission on the BPM track, the key track, or both.
// Validation is atomic: nothing is recorded unless every named track
// passes.
func (r *Ritual) Nominate(agent *agentRecord, bpm *int, key, scale, reasoning string, now time.Time) (RitualSubmission, error) {
	if r.phase != models.RitualNominate {
		return RitualSubmission{}, NewError(CodeNotInNominatePhase, "nominations are only open during the nominate phase")
	}
	if bpm == nil && key == "" {
		return RitualSubmission{}, NewError(CodeBPMOrKeyRequired, "nominate a bpm, a key, or both")
	}

	if bpm != nil {
		if hasSubmission(r.bpmNominations, agent.ID) {
			return RitualSubmission{}, NewError(CodeAlreadyNominatedBPM, "agent already nominated a bpm this cycle")
		}
		if *bpm < models.MinBPM || *bpm > models.MaxBPM {
			return RitualSubmission{}, NewValidationError([]string{
				fmt.Sprintf("bpm must be between %d and %d", models.MinBPM, models.MaxBPM),
			})
		}
	}
	if key != "" {
		if hasSubmission(r.keyNominations, agent.ID) {
			return RitualSubmission{}, NewError(CodeAlreadyNominatedKey, "agent already nominated a key this cycle")
		}
		if !models.IsValidKey(key) {
			return RitualSubmission{}, NewValidationError([]string{"key must be one of the chromatic set"})
		}
		if scale == "" {
			scale = models.DefaultScale
		}
		if !models.IsValidScale(scale) {
			return RitualSubmission{}, NewValidationError([]string{"unknown scale mode"})
		}
	}

	reasoning = truncate(reasoning, maxReasoningLength)
	sub := RitualSubmission{Reasoning: reasoning}
	if bpm != nil {
		r.bpmNominations = append(r.bpmNominations, ritualNomination{
			agentID:     agent.ID,
			botName:     agent.Name,
			bpm:         *bpm,
			reasoning:   reasoning,
			submittedAt: now,
		})
		sub.BPM = bpm
	}
	if key != "" {
		r.keyNominations = append(r.keyNominations, ritualNomination{
			agentID:     agent.ID,
			botName:     agent.Name,
			key:         key,
			scale:       scale,
			reasoning:   reasoning,
			submittedAt: now,
		})
		sub.Key = key
		sub.Scale = scale
	}
	return sub, nil
}

// Vote records the agent's choice on one or both tracks. Candidate indexes
// are 1-based; agents cannot vote for a candidate they nominated.
// Validation is atomic across both tracks.
func (r *Ritual) Vote(agent *agentRecord, bpmIdx, keyIdx *int) error {
	if r.phase != models.RitualVote {
		return NewError(CodeNotInVotePhase, "votes are only open during the vote phase")
	}
	if bpmIdx == nil && keyIdx == nil {
		return NewError(CodeBPMOrKeyRequired, "vote on a bpm candidate, a key candidate, or both")
	}

	var bpmCand, keyCand *ritualCandidate
	if bpmIdx != nil {
		if _, voted := r.bpmVotes[agent.ID]; voted {
			return NewError(CodeAlreadyVotedBPM, "agent already voted on the bpm track")
		}
		bpmCand = candidateAt(r.bpmCandidates, *bpmIdx)
		if bpmCand == nil {
			return NewErrorf(CodeInvalidBPMCandidate, "no bpm candidate with index %d", *bpmIdx)
		}
		if bpmCand.nominators[agent.ID] {
			return NewError(CodeCannotVoteOwnBPM, "agents cannot vote for their own bpm nomination")
		}
	}
	if keyIdx != nil {
		if _, voted := r.keyVotes[agent.ID]; voted {
			return NewError(CodeAlreadyVotedKey, "agent already voted on the key track")
		}
		keyCand = candidateAt(r.keyCandidates, *keyIdx)
		if keyCand == nil {
			return NewErrorf(CodeInvalidKeyCandidate, "no key candidate with index %d", *keyIdx)
		}
		if keyCand.nominators[agent.ID] {
			return NewError(CodeCannotVoteOwnKey, "agents cannot vote for their own key nomination")
		}
	}

	if bpmCand != nil {
		bpmCand.votes++
		r.bpmVotes[agent.ID] = bpmCand.index
	}
	if keyCand != nil {
		keyCand.votes++
		r.keyVotes[agent.ID] = keyCand.index
	}
	return nil
}

// View renders the cycle for one agent. The epoch is supplied by the
// caller since the facade owns it.
func (r *Ritual) View(agentID string, epoch models.Epoch, now time.Time) models.RitualView {
	v := models.RitualView{
		RitualID:        r.ritualID,
		Phase:           r.phase,
		RitualNumber:    r.ritualNumber,
		BPMNominations:  nominationViews(r.bpmNominations),
		KeyNominations:  nominationViews(r.keyNominations),
		BPMCandidates:   bpmCandidateViews(r.bpmCandidates),
		KeyCandidates:   keyCandidateViews(r.keyCandidates),
		BPMWinner:       r.bpmWinner,
		KeyWinner:       r.keyWinner,
		HasNominatedBPM: hasSubmission(r.bpmNominations, agentID),
		HasNominatedKey: hasSubmission(r.keyNominations, agentID),
		Epoch:           epoch,
		PreviousEpoch:   r.previousEpoch,
	}
	_, v.HasVotedBPM = r.bpmVotes[agentID]
	_, v.HasVotedKey = r.keyVotes[agentID]
	if r.phase != models.RitualIdle {
		started, ends := r.phaseStartedAt, r.phaseEndsAt
		v.PhaseStartedAt = &started
		v.PhaseEndsAt = &ends
		if remaining := ends.Sub(now).Seconds(); remaining > 0 {
			v.PhaseRemainingSeconds = remaining
		}
	}
	return v
}

// Hint is the compact phase summary embedded in the context view, nil when
// the cycle is idle.
func (r *Ritual) Hint(now time.Time) *models.RitualHint {
	if r.phase == models.RitualIdle {
		return nil
	}
	ends := r.phaseEndsAt
	h := &models.RitualHint{Phase: r.phase, PhaseEndsAt: &ends}
	if remaining := ends.Sub(now).Seconds(); remaining > 0 {
		h.RemainingSeconds = remaining
	}
	return h
}

// Phase reports the current phase.
func (r *Ritual) Phase() models.RitualPhase {
	return r.phase
}

type tallyGroup struct {
	bpm         int
	key         string
	scale       string
	count       int
	firstAt     time.Time
	nominatedBy string
	nominators  map[string]bool
}

func groupBPM(noms []ritualNomination) []ritualCandidate {
	groups := make(map[int]*tallyGroup)
	for _, n := range noms {
		g, ok := groups[n.bpm]
		if !ok {
			g = &tallyGroup{bpm: n.bpm, firstAt: n.submittedAt, nominatedBy: n.botName, nominators: make(map[string]bool)}
			groups[n.bpm] = g
		}
		g.count++
		g.nominators[n.agentID] = true
	}
	return rankGroups(groups, func(a, b *tallyGroup) bool { return a.bpm < b.bpm })
}

func groupKeys(noms []ritualNomination) []ritualCandidate {
	groups := make(map[string]*tallyGroup)
	for _, n := range noms {
		id := n.key + "|" + n.scale
		g, ok := groups[id]
		if !ok {
			g = &tallyGroup{key: n.key, scale: n.scale, firstAt: n.submittedAt, nominatedBy: n.botName, nominators: make(map[string]bool)}
			groups[id] = g
		}
		g.count++
		g.nominators[n.agentID] = true
	}
	return rankGroups(groups, func(a, b *tallyGroup) bool {
		if a.key != b.key {
			return a.key < b.key
		}
		return a.scale < b.scale
	})
}

// rankGroups orders groups by count desc, then earliest submission, then a
// stable value order, and keeps the top three as 1-indexed candidates.
func rankGroups[K comparable](groups map[K]*tallyGroup, valueLess func(a, b *tallyGroup) bool) []ritualCandidate {
	ranked := make([]*tallyGroup, 0, len(groups))
	for _, g := range groups {
		ranked = append(ranked, g)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		if !ranked[i].firstAt.Equal(ranked[j].firstAt) {
			return ranked[i].firstAt.Before(ranked[j].firstAt)
		}
		return valueLess(ranked[i], ranked[j])
	})
	if len(ranked) > ritualCandidateLimit {
		ranked = ranked[:ritualCandidateLimit]
	}

	candidates := make([]ritualCandidate, 0, len(ranked))
	for i, g := range ranked {
		candidates = append(candidates, ritualCandidate{
			index:       i + 1,
			bpm:         g.bpm,
			key:         g.key,
			scale:       g.scale,
			count:       g.count,
			nominatedBy: g.nominatedBy,
			nominators:  g.nominators,
			firstAt:     g.firstAt,
		})
	}
	return candidates
}

// topVoted picks the candidate with the most votes, lowest index on ties.
// The caller guarantees the ballot is non-empty.
func topVoted(candidates []ritualCandidate) *ritualCandidate {
	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].votes > candidates[best].votes {
			best = i
		}
	}
	return &candidates[best]
}

func candidateAt(candidates []ritualCandidate, index int) *ritualCandidate {
	for i := range candidates {
		if candidates[i].index == index {
			return &candidates[i]
		}
	}
	return nil
}

func hasSubmission(noms []ritualNomination, agentID string) bool {
	for _, n := range noms {
		if n.agentID == agentID {
			return true
		}
	}
	return false
}

func nominationViews(noms []ritualNomination) []models.Nomination {
	out := make([]models.Nomination, 0, len(noms))
	for _, n := range noms {
		out = append(out, models.Nomination{
			NominatedBy: n.botName,
			BPM:         n.bpm,
			Key:         n.key,
			Scale:       n.scale,
			Reasoning:   n.reasoning,
			SubmittedAt: n.submittedAt,
		})
	}
	return out
}

func bpmCandidateViews(candidates []ritualCandidate) []models.BPMCandidate {
	out := make([]models.BPMCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, models.BPMCandidate{
			Index:       c.index,
			BPM:         c.bpm,
			Count:       c.count,
			NominatedBy: c.nominatedBy,
			Votes:       c.votes,
		})
	}
	return out
}

func keyCandidateViews(candidates []ritualCandidate) []models.KeyCandidate {
	out := make([]models.KeyCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, models.KeyCandidate{
			Index:       c.index,
			Key:         c.key,
			Scale:       c.scale,
			Count:       c.count,
			NominatedBy: c.nominatedBy,
			Votes:       c.votes,
		})
	}
	return out
}

// truncate cuts s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
