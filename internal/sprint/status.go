// Package sprint loads the sprint status document and selects the stories
// whose development state is done.
package sprint

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// DoneState is the only development state treated as complete. Near
// synonyms such as "Done" or "completed" do not count.
const DoneState = "done"

const developmentStatusKey = "development_status"

var (
	// ErrStatusNotMapping indicates the document (or its development_status
	// block) is not a YAML mapping.
	ErrStatusNotMapping = errors.New("sprint: status is not a mapping")
	// ErrMultipleDocuments indicates the status file holds more than one
	// YAML document.
	ErrMultipleDocuments = errors.New("sprint: status holds more than one document")

	storyKeyPattern = regexp.MustCompile(`^[0-9]+-[0-9]+-`)
)

// ParseError reports a status document that is not well-formed YAML or does
// not have the expected shape.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("sprint: parse status: %v", e.Err)
	}
	return fmt.Sprintf("sprint: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValueKind tags the YAML shape of a development_status value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindScalar
	KindNull
	KindCollection
)

// StateValue is a development_status value. Text holds the scalar text for
// string and non-string scalars and is empty otherwise.
type StateValue struct {
	Kind ValueKind
	Text string
}

// IsDone reports whether the value is exactly the string "done".
func (v StateValue) IsDone() bool {
	return v.Kind == KindString && v.Text == DoneState
}

// Entry is one key/state pair from development_status.
type Entry struct {
	Key   string
	State StateValue
}

// Status is the parsed development_status mapping. It is read-only after
// Parse returns.
type Status struct {
	entries []Entry
}

// Load reads and parses the status document at path.
func Load(path string) (*Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sprint: read status: %w", err)
	}
	status, err := Parse(data)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
		}
		return nil, err
	}
	return status, nil
}

// Parse decodes a status document. A document without development_status
// (or with a null one) yields an empty status.
func Parse(data []byte) (*Status, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Err: ErrStatusNotMapping}
		}
		return nil, &ParseError{Err: err}
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = ErrMultipleDocuments
		}
		return nil, &ParseError{Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &ParseError{Err: ErrStatusNotMapping}
	}
	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Err: ErrStatusNotMapping}
	}
	block := lookup(root, developmentStatusKey)
	if block == nil || isNull(block) {
		return &Status{}, nil
	}
	if block.Kind != yaml.MappingNode {
		return nil, &ParseError{Err: fmt.Errorf("%s: %w", developmentStatusKey, ErrStatusNotMapping)}
	}
	return &Status{entries: collectEntries(block)}, nil
}

// Entries returns the development_status pairs in document order.
func (s *Status) Entries() []Entry {
	if s == nil {
		return nil
	}
	return append([]Entry(nil), s.entries...)
}

// Count returns how many entries carry the given string state.
func (s *Status) Count(state string) int {
	if s == nil {
		return 0
	}
	count := 0
	for _, entry := range s.entries {
		if entry.State.Kind == KindString && entry.State.Text == state {
			count++
		}
	}
	return count
}

// DoneKeys returns the sorted story keys whose state is done.
func (s *Status) DoneKeys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		if !entry.State.IsDone() || !IsStoryKey(entry.Key) {
			continue
		}
		keys = append(keys, entry.Key)
	}
	sort.Strings(keys)
	return keys
}

// IsStoryKey reports whether key has the <number>-<number>- story shape.
// Epic and retrospective keys such as "epic-1" do not.
func IsStoryKey(key string) bool {
	return storyKeyPattern.MatchString(key)
}

// collectEntries flattens a mapping node. Duplicate keys keep their first
// position and take the last value, matching plain YAML mapping semantics.
func collectEntries(block *yaml.Node) []Entry {
	var entries []Entry
	positions := map[string]int{}
	for _, p := range mappingPairs(block, map[*yaml.Node]bool{}) {
		if p.key.Kind != yaml.ScalarNode {
			continue
		}
		entry := Entry{Key: p.key.Value, State: stateOf(p.value)}
		if pos, seen := positions[entry.Key]; seen {
			entries[pos] = entry
			continue
		}
		positions[entry.Key] = len(entries)
		entries = append(entries, entry)
	}
	return entries
}

type pair struct {
	key   *yaml.Node
	value *yaml.Node
}

// mappingPairs lists the key/value pairs of mapping with << merge keys
// expanded. Explicit keys override merged ones, and among merged sources
// the earlier source wins.
func mappingPairs(mapping *yaml.Node, visiting map[*yaml.Node]bool) []pair {
	if visiting[mapping] {
		return nil
	}
	visiting[mapping] = true
	defer delete(visiting, mapping)

	var explicit, merged []pair
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode := resolve(mapping.Content[i])
		if isMergeKey(keyNode) {
			merged = append(merged, mergeSources(mapping.Content[i+1], visiting)...)
			continue
		}
		explicit = append(explicit, pair{key: keyNode, value: mapping.Content[i+1]})
	}
	if len(merged) == 0 {
		return explicit
	}
	taken := map[string]bool{}
	for _, p := range explicit {
		if p.key.Kind == yaml.ScalarNode {
			taken[p.key.Value] = true
		}
	}
	pairs := explicit
	for _, p := range merged {
		if p.key.Kind != yaml.ScalarNode || taken[p.key.Value] {
			continue
		}
		taken[p.key.Value] = true
		pairs = append(pairs, p)
	}
	return pairs
}

func mergeSources(node *yaml.Node, visiting map[*yaml.Node]bool) []pair {
	node = resolve(node)
	switch node.Kind {
	case yaml.MappingNode:
		return mappingPairs(node, visiting)
	case yaml.SequenceNode:
		var pairs []pair
		for _, item := range node.Content {
			if item = resolve(item); item.Kind == yaml.MappingNode {
				pairs = append(pairs, mappingPairs(item, visiting)...)
			}
		}
		return pairs
	default:
		return nil
	}
}

func isMergeKey(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Value == "<<" && node.ShortTag() == "!!merge"
}

func stateOf(node *yaml.Node) StateValue {
	node = resolve(node)
	switch {
	case isNull(node):
		return StateValue{Kind: KindNull}
	case node.Kind != yaml.ScalarNode:
		return StateValue{Kind: KindCollection}
	case node.ShortTag() == "!!str":
		return StateValue{Kind: KindString, Text: node.Value}
	default:
		return StateValue{Kind: KindScalar, Text: node.Value}
	}
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	var found *yaml.Node
	for _, p := range mappingPairs(mapping, map[*yaml.Node]bool{}) {
		if p.key.Kind == yaml.ScalarNode && p.key.Value == key {
			found = resolve(p.value)
		}
	}
	return found
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}
