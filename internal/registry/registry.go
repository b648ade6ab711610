package registry

import (
	"fmt"
	"slices"
	"sync"
)

// Registry is the thread-safe in-memory activity catalog.
type Registry struct {
	mu sync.RWMutex
	// names keeps catalog order; activities is keyed by name.
	names      []string
	activities map[string]*Activity
}

// New builds a registry from a seed catalog.
// The seed is copied, so later changes to it do not leak in.
func New(seed Catalog) (*Registry, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	r := &Registry{
		names:      make([]string, 0, len(seed)),
		activities: make(map[string]*Activity, len(seed)),
	}
	for _, e := range seed {
		a := e.Activity.clone()
		r.names = append(r.names, e.Name)
		r.activities[e.Name] = &a
	}
	return r, nil
}

// --- Interface Implementation ---

func (r *Registry) List() Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(Catalog, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, Entry{Name: name, Activity: r.activities[name].clone()})
	}
	return out
}

func (r *Registry) Get(name string) (Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.activities[name]
	if !ok {
		return Activity{}, ErrActivityNotFound
	}
	return a.clone(), nil
}

// Names returns the activity names in catalog order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.names)
}

// Signup appends email to the activity's participants.
// Capacity is not checked.
func (r *Registry) Signup(activity, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[activity]
	if !ok {
		return "", ErrActivityNotFound
	}
	if a.Has(email) {
		return "", ErrAlreadySignedUp
	}

	a.Participants = append(a.Participants, email)
	return fmt.Sprintf("Signed up %s for %s", email, activity), nil
}

// Unregister removes email from the activity's participants, keeping the
// order of everyone else.
func (r *Registry) Unregister(activity, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[activity]
	if !ok {
		return "", ErrActivityNotFound
	}
	idx := slices.Index(a.Participants, email)
	if idx < 0 {
		return "", ErrNotSignedUp
	}

	a.Participants = slices.Delete(a.Participants, idx, idx+1)
	return fmt.Sprintf("Unregistered %s from %s", email, activity), nil
}

func (r *Registry) Occupancy() []Occupancy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Occupancy, 0, len(r.names))
	for _, name := range r.names {
		a := r.activities[name]
		out = append(out, Occupancy{
			Name:     name,
			Enrolled: len(a.Participants),
			Capacity: a.MaxParticipants,
		})
	}
	return out
}

// Snapshot maps activity name to a copy of its participant list.
type Snapshot map[string][]string

// Snapshot captures the participant lists of every activity.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := make(Snapshot, len(r.activities))
	for name, a := range r.activities {
		snap[name] = slices.Clone(a.Participants)
	}
	return snap
}

// Restore replaces participant lists from a snapshot.
// Activities missing from the registry are ignored.
func (r *Registry) Restore(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, participants := range snap {
		if a, ok := r.activities[name]; ok {
			a.Participants = append(make([]string, 0, len(participants)), participants...)
		}
	}
}
