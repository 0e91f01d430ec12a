package core

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/synthmob/synthmob/pkg/models"
)

const (
	// MaxSessions caps the number of live sessions.
	MaxSessions = 50
	// MaxSessionTitle is the title length cap; longer titles are truncated.
	MaxSessionTitle = 80

	sessionMinRadius     = 15.0
	sessionMaxRadius     = 35.0
	stageExclusionRadius = 7.4
	stagePushRadius      = 9.4
	eastWingX            = 79.0
)

// Sessions owns the collaborative session lifecycle: creation, membership,
// creator succession, and destruction of emptied sessions.
type Sessions struct {
	byID    map[string]*models.Session
	order   []string
	byAgent map[string]string
	rng     *rand.Rand
}

// NewSessions creates an empty session store drawing positions from rng.
func NewSessions(rng *rand.Rand) *Sessions {
	s := &Sessions{rng: rng}
	s.Reset()
	return s
}

// LeaveOutcome reports a departure: the session's state after the leave,
// and whether the session ended because it emptied.
type LeaveOutcome struct {
	Session models.Session
	Ended   bool
}

// Start opens a session with the agent as creator. An agent already in a
// session gets that session back unchanged.
func (s *Sessions) Start(agent *agentRecord, typ models.SessionType, title, pattern, output string, pos *models.Position, now time.Time) (models.Session, bool, error) {
	if !typ.IsValid() {
		return models.Session{}, false, NewErrorf(CodeInvalidSessionType, "unknown session type %q", typ)
	}
	if len(s.byID) >= MaxSessions {
		return models.Session{}, false, NewErrorf(CodeMaxSessionsReached, "at most %d active sessions", MaxSessions)
	}
	if existingID, ok := s.byAgent[agent.ID]; ok {
		return copySession(s.byID[existingID]), false, nil
	}

	if len(title) > MaxSessionTitle {
		title = title[:MaxSessionTitle]
	}

	session := &models.Session{
		ID:             uuid.New().String(),
		Type:           typ,
		Title:          title,
		CreatorAgentID: agent.ID,
		CreatorBotName: agent.Name,
		Position:       s.resolvePosition(pos),
		CreatedAt:      now,
		UpdatedAt:      now,
		Participants: []models.Participant{{
			AgentID:  agent.ID,
			BotName:  agent.Name,
			JoinedAt: now,
			Role:     models.RoleCreator,
			Pattern:  pattern,
			Output:   output,
		}},
	}
	s.byID[session.ID] = session
	s.order = append(s.order, session.ID)
	s.byAgent[agent.ID] = session.ID

	return copySession(session), true, nil
}

// Join adds the agent to a session, leaving any other session first.
// Rejoining the same session refreshes the participant's pattern and
// output.
func (s *Sessions) Join(agent *agentRecord, sessionID, pattern, output string, now time.Time) (models.Session, *LeaveOutcome, error) {
	session, ok := s.byID[sessionID]
	if !ok {
		return models.Session{}, nil, NewError(CodeSessionNotFound, "session not found")
	}

	if currentID, inSession := s.byAgent[agent.ID]; inSession {
		if currentID == sessionID {
			participant := findParticipant(session, agent.ID)
			if pattern != "" {
				participant.Pattern = pattern
			}
			if output != "" {
				participant.Output = output
			}
			session.UpdatedAt = now
			return copySession(session), nil, nil
		}
		left, err := s.Leave(agent, currentID, now)
		if err != nil {
			return models.Session{}, nil, err
		}
		outcome := left
		session, ok = s.byID[sessionID]
		if !ok {
			return models.Session{}, &outcome, NewError(CodeSessionNotFound, "session not found")
		}
		return s.admit(agent, session, pattern, output, now), &outcome, nil
	}

	return s.admit(agent, session, pattern, output, now), nil, nil
}

// admit appends a contributor; the caller guarantees the agent is free.
func (s *Sessions) admit(agent *agentRecord, session *models.Session, pattern, output string, now time.Time) models.Session {
	session.Participants = append(session.Participants, models.Participant{
		AgentID:  agent.ID,
		BotName:  agent.Name,
		JoinedAt: now,
		Role:     models.RoleContributor,
		Pattern:  pattern,
		Output:   output,
	})
	session.UpdatedAt = now
	s.byAgent[agent.ID] = session.ID
	return copySession(session)
}

// UpdateOutput refreshes the agent's contribution within a session.
func (s *Sessions) UpdateOutput(agent *agentRecord, sessionID, pattern, output string, now time.Time) (models.Session, error) {
	session, ok := s.byID[sessionID]
	if !ok {
		return models.Session{}, NewError(CodeSessionNotFound, "session not found")
	}
	participant := findParticipant(session, agent.ID)
	if participant == nil {
		return models.Session{}, NewError(CodeNotInSession, "agent is not a participant")
	}
	if pattern != "" {
		participant.Pattern = pattern
	}
	if output != "" {
		participant.Output = output
	}
	session.UpdatedAt = now
	return copySession(session), nil
}

// Leave removes the agent from a session. With an empty sessionID the
// agent's current session is used. Emptied sessions are destroyed;
// otherwise a departing creator hands the role to the earliest-joined
// remaining participant.
func (s *Sessions) Leave(agent *agentRecord, sessionID string, now time.Time) (LeaveOutcome, error) {
	currentID, inSession := s.byAgent[agent.ID]
	if !inSession {
		return LeaveOutcome{}, NewError(CodeNotInSession, "agent is not in a session")
	}
	if sessionID == "" {
		sessionID = currentID
	}
	if sessionID != currentID {
		return LeaveOutcome{}, NewError(CodeNotInSession, "agent is not in that session")
	}

	session := s.byID[sessionID]
	wasCreator := session.CreatorAgentID == agent.ID

	remaining := session.Participants[:0]
	for _, p := range session.Participants {
		if p.AgentID != agent.ID {
			remaining = append(remaining, p)
		}
	}
	session.Participants = remaining
	delete(s.byAgent, agent.ID)

	if len(session.Participants) == 0 {
		final := copySession(session)
		delete(s.byID, sessionID)
		s.dropFromOrder(sessionID)
		return LeaveOutcome{Session: final, Ended: true}, nil
	}

	if wasCreator {
		earliest := 0
		for i := 1; i < len(session.Participants); i++ {
			if session.Participants[i].JoinedAt.Before(session.Participants[earliest].JoinedAt) {
				earliest = i
			}
		}
		session.Participants[earliest].Role = models.RoleCreator
		session.CreatorAgentID = session.Participants[earliest].AgentID
		session.CreatorBotName = session.Participants[earliest].BotName
	}
	session.UpdatedAt = now

	return LeaveOutcome{Session: copySession(session)}, nil
}

// Get returns a deep copy of one session.
func (s *Sessions) Get(sessionID string) (models.Session, bool) {
	session, ok := s.byID[sessionID]
	if !ok {
		return models.Session{}, false
	}
	return copySession(session), true
}

// List returns deep copies of every session in creation order.
func (s *Sessions) List() []models.Session {
	out := make([]models.Session, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copySession(s.byID[id]))
	}
	return out
}

// ListByType returns deep copies of the sessions of one type.
func (s *Sessions) ListByType(typ models.SessionType) []models.Session {
	var out []models.Session
	for _, id := range s.order {
		if s.byID[id].Type == typ {
			out = append(out, copySession(s.byID[id]))
		}
	}
	return out
}

// SessionIDOf reports the agent's current session, empty when none.
func (s *Sessions) SessionIDOf(agentID string) string {
	return s.byAgent[agentID]
}

// Count reports the number of live sessions.
func (s *Sessions) Count() int {
	return len(s.byID)
}

// Reset destroys every session.
func (s *Sessions) Reset() {
	s.byID = make(map[string]*models.Session)
	s.byAgent = make(map[string]string)
	s.order = nil
}

func (s *Sessions) dropFromOrder(sessionID string) {
	for i, id := range s.order {
		if id == sessionID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// resolvePosition picks the session's arena point: the caller's, or a
// random point on the spawn annulus, in both cases pushed off the stage
// exclusion zone. The room derives from the x coordinate.
func (s *Sessions) resolvePosition(pos *models.Position) models.SessionPosition {
	var x, z float64
	if pos != nil {
		x, z = pos.X, pos.Z
	} else {
		rr := sessionMinRadius*sessionMinRadius +
			s.rng.Float64()*(sessionMaxRadius*sessionMaxRadius-sessionMinRadius*sessionMinRadius)
		r := math.Sqrt(rr)
		theta := s.rng.Float64() * 2 * math.Pi
		x, z = r*math.Cos(theta), r*math.Sin(theta)
	}

	if d := math.Hypot(x, z); d < stageExclusionRadius {
		if d == 0 {
			x, z = stagePushRadius, 0
		} else {
			scale := stagePushRadius / d
			x *= scale
			z *= scale
		}
	}

	room := models.RoomCenter
	switch {
	case x >= eastWingX:
		room = models.RoomEastWing
	case x <= -eastWingX:
		room = models.RoomWestWing
	}
	return models.SessionPosition{X: x, Z: z, Room: room}
}

// findParticipant returns the mutable participant entry, nil when absent.
func findParticipant(session *models.Session, agentID string) *models.Participant {
	for i := range session.Participants {
		if session.Participants[i].AgentID == agentID {
			return &session.Participants[i]
		}
	}
	return nil
}

// copySession deep-copies a session so callers never alias core state.
func copySession(session *models.Session) models.Session {
	out := *session
	out.Participants = make([]models.Participant, len(session.Participants))
	copy(out.Participants, session.Participants)
	if session.Meta != nil {
		out.Meta = make(map[string]any, len(session.Meta))
		for k, v := range session.Meta {
			out.Meta[k] = v
		}
	}
	return out
}
