// Package dod applies the story Definition-of-Done rules to every story the
// sprint status marks done.
package dod

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kingrea/storydod/internal/config"
	"github.com/kingrea/storydod/internal/sprint"
	"github.com/kingrea/storydod/internal/story"
)

// Violation is one failed rule for one story.
type Violation struct {
	StoryKey string
	Rule     RuleID
	Message  string
}

// String renders the violation as a self-contained line.
func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s", v.StoryKey, v.Message)
}

// Result captures one verification run.
type Result struct {
	StatusPath string
	Checked    []string
	Violations []Violation
}

// IsValid reports whether no violations were found.
func (r *Result) IsValid() bool {
	return r != nil && len(r.Violations) == 0
}

// Check evaluates one inspected record. A missing or unreadable record
// yields a single violation and no rule runs against it.
func Check(result story.CheckResult) []Violation {
	if result.State == story.StateMissing {
		return []Violation{{
			StoryKey: result.Key,
			Rule:     RuleRecordFile,
			Message:  fmt.Sprintf("missing record file: %s", result.Path),
		}}
	}
	if result.State != story.StateReady {
		return []Violation{{
			StoryKey: result.Key,
			Rule:     RuleRecordFile,
			Message:  fmt.Sprintf("unreadable record file: %s: %v", result.Path, result.Err),
		}}
	}
	var violations []Violation
	for _, rule := range Rules {
		if msg := rule.Evaluate(result.Document); msg != "" {
			violations = append(violations, Violation{StoryKey: result.Key, Rule: rule.ID, Message: msg})
		}
	}
	return violations
}

// Verifier drives a full run over one project layout.
type Verifier struct {
	layout config.Layout
	store  *story.Store
	logger *zap.Logger
}

// Option customizes a Verifier.
type Option func(*Verifier)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithStore overrides the record store.
func WithStore(store *story.Store) Option {
	return func(v *Verifier) {
		if store != nil {
			v.store = store
		}
	}
}

// NewVerifier builds a verifier for layout.
func NewVerifier(layout config.Layout, opts ...Option) *Verifier {
	v := &Verifier{
		layout: layout,
		store:  story.NewStore(layout.RecordPath),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Run loads the sprint status and checks every done story. Errors are
// returned only when the status document cannot be loaded or ctx ends; all
// record problems are reported as violations.
func (v *Verifier) Run(ctx context.Context) (*Result, error) {
	statusPath := v.layout.StatusPath()
	status, err := sprint.Load(statusPath)
	if err != nil {
		return nil, err
	}
	keys := status.DoneKeys()
	v.logger.Debug("sprint status loaded",
		zap.String("path", statusPath),
		zap.Int("entries", len(status.Entries())),
		zap.Int("done", status.Count(sprint.DoneState)),
		zap.Int("stories", len(keys)),
	)

	result := &Result{StatusPath: statusPath, Checked: keys}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("dod: verification interrupted: %w", err)
		}
		inspected, checkErr := v.store.Check(key)
		if checkErr != nil {
			v.logger.Debug("story record unreadable",
				zap.String("story", key),
				zap.String("path", inspected.Path),
				zap.Error(checkErr),
			)
		}
		found := Check(inspected)
		v.logger.Debug("story checked",
			zap.String("story", key),
			zap.String("state", string(inspected.State)),
			zap.Int("violations", len(found)),
		)
		result.Violations = append(result.Violations, found...)
	}
	return result, nil
}
