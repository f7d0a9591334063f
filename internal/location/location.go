// Package location serves the static state to district reference table.
// The table is parsed once and never mutated afterwards, so a single *Table
// can be shared by every request.
package location

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

//go:embed data/states_districts.json
var bundled []byte

// ErrStateNotFound is returned when a state is unknown or has no districts.
var ErrStateNotFound = errors.New("state not found")

// Table maps state names to their districts in file order.
type Table struct {
	states    []string
	districts map[string][]string
}

// Load reads the table from path, or the bundled copy when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Parse(bytes.NewReader(bundled))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open location data: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a JSON object of state -> [district...] keeping key order.
func Parse(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read location data: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("location data must be a JSON object")
	}

	t := &Table{districts: make(map[string][]string)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read state name: %w", err)
		}
		state, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if _, dup := t.districts[state]; dup {
			return nil, fmt.Errorf("duplicate state %q", state)
		}

		var list []string
		if err := dec.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode districts of %q: %w", state, err)
		}
		if list == nil {
			list = []string{}
		}

		t.states = append(t.states, state)
		t.districts[state] = list
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read location data: %w", err)
	}

	return t, nil
}

// States returns the state names in file order.
func (t *Table) States() []string {
	out := make([]string, len(t.states))
	copy(out, t.states)
	return out
}

// Districts returns the districts of state. ErrStateNotFound is returned
// when the state is absent or lists no districts.
func (t *Table) Districts(state string) ([]string, error) {
	list, ok := t.districts[state]
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrStateNotFound, state)
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

// Len returns the number of states.
func (t *Table) Len() int {
	return len(t.states)
}

// MarshalJSON writes the table as an object whose keys keep file order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, state := range t.states {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(state)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(t.districts[state])
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
