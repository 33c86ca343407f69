package logger

import (
	"encoding/json"
	"sort"
)

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int `json:"log_entries"`
	Runs       int `json:"runs"`

	Scripts           StrCounter   `json:"scripts"`
	Outcomes          StrCounter   `json:"outcomes"`
	Commands          StrCounter   `json:"commands"`
	SpawnFailures     *PathCounter `json:"spawn_failures"`
	IgnoredDirectives *PathCounter `json:"ignored_directives"`
	ReadFailures      *PathCounter `json:"read_failures"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		SpawnFailures:     NewPathCounter("command", "error"),
		IgnoredDirectives: NewPathCounter("dir", "command"),
		ReadFailures:      NewPathCounter("script", "error"),
	}
}

// Update adds event to the report.
func (r *Report) Update(event *Event) {
	r.LogEntries++

	switch event.Type {
	case EventScriptStarted:
		r.Runs++
		r.Scripts.Increment(event.Script)
	case EventScriptFinished:
		r.Outcomes.Increment(event.Outcome)
	case EventCommandSpawned:
		r.Commands.Increment(event.Command)
	case EventSpawnFailed:
		r.SpawnFailures.Increment(event.Command, event.Error)
	case EventDirectiveIgnored:
		r.IgnoredDirectives.Increment(event.Dir, event.Command)
	case EventReadFailed:
		r.ReadFailures.Increment(event.Script, event.Error)
		r.Outcomes.Increment(event.Outcome)
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implements custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	if s.internal == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.internal)
}

// NewPathCounter creates a counter keyed by the given columns.
func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of string tuples seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Get returns the count for the tuple.
func (ctr *PathCounter) Get(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implements custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
