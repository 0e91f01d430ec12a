// Package core implements the authoritative in-memory coordination state:
// agent identity, the slot board, spatial placements, sessions, the shared
// world, wayfinding, the epoch ritual, and messaging. All mutable state is
// owned by the Core facade, which serializes every operation under one
// lock and publishes resulting events in order. The component types in
// this package hold no locks of their own and must only be touched through
// the facade.
package core

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// OnlineWindow is how recently an agent must have been seen to count as
// online.
const OnlineWindow = 5 * time.Minute

const tokenBytes = 32

var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,20}$`)

// agentRecord is the registry's internal agent row. It carries the token
// and must never leave the core; views are built from it.
type agentRecord struct {
	ID              string
	Name            string
	Token           string
	CreatedAt       time.Time
	TotalPlacements int
	Reputation      int
	OwnerAddress    string

	LastSeenAt      time.Time
	CurrentActivity string
}

// Registry owns agent identity and presence. Name and token lookups are
// injective; the token is the sole capability.
type Registry struct {
	byID    map[string]*agentRecord
	byName  map[string]*agentRecord
	byToken map[string]*agentRecord
	order   []string
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Register creates an agent with a fresh token. Names must match the
// name pattern and be unused.
func (r *Registry) Register(name string, now time.Time) (*agentRecord, error) {
	if name == "" {
		return nil, NewError(CodeNameRequired, "name is required")
	}
	if !namePattern.MatchString(name) {
		return nil, NewErrorf(CodeInvalidName, "name must match %s", namePattern.String())
	}
	if _, taken := r.byName[name]; taken {
		return nil, NewErrorf(CodeNameTaken, "name %q is already registered", name)
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	rec := &agentRecord{
		ID:         uuid.New().String(),
		Name:       name,
		Token:      token,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	r.byID[rec.ID] = rec
	r.byName[rec.Name] = rec
	r.byToken[rec.Token] = rec
	r.order = append(r.order, rec.ID)
	return rec, nil
}

// newToken draws a 64-character hex capability from the system entropy
// source.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", NewErrorf(CodeUnauthorized, "token generation failed: %v", err)
	}
	return hex.EncodeToString(buf), nil
}

// ByToken resolves the bearer capability, nil when unknown.
func (r *Registry) ByToken(token string) *agentRecord {
	if token == "" {
		return nil
	}
	return r.byToken[token]
}

// ByID looks an agent up by id, nil when unknown.
func (r *Registry) ByID(id string) *agentRecord {
	return r.byID[id]
}

// ByName looks an agent up by exact name, nil when unknown.
func (r *Registry) ByName(name string) *agentRecord {
	return r.byName[name]
}

// TouchPresence stamps lastSeenAt and, when given, the activity label.
func (r *Registry) TouchPresence(id, activity string, now time.Time) {
	rec, ok := r.byID[id]
	if !ok {
		return
	}
	rec.LastSeenAt = now
	if activity != "" {
		rec.CurrentActivity = activity
	}
}

// Online returns the agents seen within the online window, in registration
// order.
func (r *Registry) Online(now time.Time) []*agentRecord {
	var online []*agentRecord
	for _, id := range r.order {
		rec := r.byID[id]
		if now.Sub(rec.LastSeenAt) < OnlineWindow {
			online = append(online, rec)
		}
	}
	return online
}

// OnlineCount counts the agents seen within the online window.
func (r *Registry) OnlineCount(now time.Time) int {
	return len(r.Online(now))
}

// All returns every registered agent in registration order.
func (r *Registry) All() []*agentRecord {
	all := make([]*agentRecord, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.byID[id])
	}
	return all
}

// Count reports the number of registered agents.
func (r *Registry) Count() int {
	return len(r.byID)
}

// Reset drops every agent and token.
func (r *Registry) Reset() {
	r.byID = make(map[string]*agentRecord)
	r.byName = make(map[string]*agentRecord)
	r.byToken = make(map[string]*agentRecord)
	r.order = nil
}
