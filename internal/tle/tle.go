// Package tle fetches and parses two-line element sets from an upstream
// distribution point.
package tle

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/signalsfoundry/transit-recorder/model"
)

// Set holds the element sets parsed from one source file, keyed by the
// label line preceding each pair of data lines.
type Set struct {
	byName map[string]model.TLE
	names  []string
}

// Parse reads grouped triples of text lines: a label line followed by the
// two element lines. Blank lines and stray text between groups are
// tolerated; a label is whatever non-element line precedes a valid pair.
func Parse(r io.Reader) (*Set, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read element source: %w", err)
	}

	set := &Set{byName: make(map[string]model.TLE)}
	for i := 0; i+2 < len(lines); {
		name := strings.TrimSpace(lines[i])
		line1, line2 := lines[i+1], lines[i+2]
		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			i++
			continue
		}
		if _, dup := set.byName[name]; !dup {
			set.names = append(set.names, name)
		}
		set.byName[name] = model.TLE{Name: name, Line1: line1, Line2: line2}
		i += 3
	}
	return set, nil
}

// Find looks up an element set by its exact label.
func (s *Set) Find(name string) (model.TLE, bool) {
	t, ok := s.byName[strings.TrimSpace(name)]
	return t, ok
}

// Names lists the labels in source order.
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len reports how many element sets were parsed.
func (s *Set) Len() int { return len(s.byName) }
