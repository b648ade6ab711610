package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Activity is a single extracurricular offering.
// MaxParticipants is informational; signups are not capped by it.
type Activity struct {
	Description     string   `json:"description" yaml:"description"`
	Schedule        string   `json:"schedule" yaml:"schedule"`
	MaxParticipants int      `json:"max_participants" yaml:"max_participants"`
	Participants    []string `json:"participants" yaml:"participants"`
}

// clone returns a deep copy. Participants is never nil so it encodes as [].
func (a Activity) clone() Activity {
	out := a
	out.Participants = make([]string, len(a.Participants))
	copy(out.Participants, a.Participants)
	return out
}

// Has reports whether email is on the participant list.
func (a Activity) Has(email string) bool {
	return slices.Contains(a.Participants, email)
}

// Entry pairs an activity with its name.
type Entry struct {
	Name string `yaml:"name"`
	Activity `yaml:",inline"`
}

// Catalog is an ordered list of activities.
// It encodes as a JSON object keyed by name, keeping catalog order.
type Catalog []Entry

// Lookup finds an activity by name.
func (c Catalog) Lookup(name string) (Activity, bool) {
	for _, e := range c {
		if e.Name == name {
			return e.Activity, true
		}
	}
	return Activity{}, false
}

// Names returns the activity names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, e := range c {
		names = append(names, e.Name)
	}
	return names
}

// MarshalJSON writes the catalog as {"<name>": {...}, ...}.
func (c Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Activity.clone())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object into a catalog, keeping key order.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("catalog: expected JSON object, got %v", tok)
	}
	var out Catalog
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var a Activity
		if err := dec.Decode(&a); err != nil {
			return err
		}
		out = append(out, Entry{Name: name, Activity: a})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

// Occupancy is the enrolment count of one activity.
type Occupancy struct {
	Name     string
	Enrolled int
	Capacity int
}
