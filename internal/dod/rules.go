package dod

import (
	"github.com/kingrea/storydod/internal/story"
)

// RuleID names one Definition-of-Done rule.
type RuleID string

const (
	RuleRecordFile     RuleID = "record-file"
	RuleDevAgentRecord RuleID = "dev-agent-record"
	RuleAgentModelUsed RuleID = "agent-model-used"
	RuleReviewNotes    RuleID = "review-notes"
	RuleFileList       RuleID = "file-list"
)

// Rule checks one required element of a story record. Evaluate returns the
// violation message, or "" when the record satisfies the rule.
type Rule struct {
	ID       RuleID
	Evaluate func(doc *story.Document) string
}

// Rules lists the record checks in reporting order. Every rule runs on every
// record; a failing rule never short-circuits the ones after it.
var Rules = []Rule{
	{
		ID: RuleDevAgentRecord,
		Evaluate: func(doc *story.Document) string {
			if doc.HasSection(2, "Dev Agent Record") {
				return ""
			}
			return "missing section: ## Dev Agent Record"
		},
	},
	{
		ID: RuleAgentModelUsed,
		Evaluate: func(doc *story.Document) string {
			switch doc.LabelledValue(3, "Agent Model Used").Status {
			case story.Found:
				return ""
			case story.FoundEmpty:
				return "empty Agent Model Used value"
			default:
				return "missing section: ### Agent Model Used"
			}
		},
	},
	{
		ID: RuleReviewNotes,
		Evaluate: func(doc *story.Document) string {
			if doc.HasSection(2, "Review Notes") {
				return ""
			}
			return "missing section: ## Review Notes"
		},
	},
	{
		ID: RuleFileList,
		Evaluate: func(doc *story.Document) string {
			if doc.HasAnySection([]int{2, 3}, "File List") {
				return ""
			}
			return "missing section: File List (##/### File List)"
		},
	},
}
