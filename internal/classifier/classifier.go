// Package classifier decides whether a corpus speaker is an AI/robot
// character. Classification is a pure function of speaker metadata: a
// curated name allowlist checked first, then a keyword scan over the
// speaker's description field. Every result carries a reason tag so stored
// dialogue stays auditable.
package classifier

import (
	"strings"

	"github.com/abdulachik/robodialog/internal/corpus"
)

// Reason tags reported in classification results.
const (
	ReasonNameAllowlist = "name-allowlist"
	ReasonKeywordMatch  = "keyword-match"
	ReasonNoMetadata    = "no-metadata"
	ReasonNoMatch       = "no-match"
)

// DescriptionKey is the metadata field scanned for robot-indicator keywords.
const DescriptionKey = "description"

// Result is the outcome of classifying one speaker.
type Result struct {
	Robot  bool
	Reason string
}

// Classifier holds the compiled classification rules.
type Classifier struct {
	names    map[string]struct{}
	keywords []string
}

// Config overrides the curated defaults. Empty slices fall back to the
// built-in lists.
type Config struct {
	Names    []string
	Keywords []string
}

// New builds a classifier from cfg.
func New(cfg Config) *Classifier {
	names := cfg.Names
	if len(names) == 0 {
		names = DefaultNames
	}
	keywords := cfg.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	nameSet := make(map[string]struct{}, len(names))
	for _, n := range names {
		nameSet[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}

	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(strings.TrimSpace(k))
	}

	return &Classifier{names: nameSet, keywords: lowered}
}

// Classify reports whether the speaker is an AI/robot character. Rules are
// checked in a fixed priority order (name allowlist before keyword match)
// and keywords are scanned in configured order, so repeated calls with the
// same input always produce the same result. Missing metadata is a negative
// classification, never an error.
func (c *Classifier) Classify(sp corpus.Speaker) Result {
	if name := strings.ToLower(strings.TrimSpace(sp.Name)); name != "" {
		if _, ok := c.names[name]; ok {
			return Result{Robot: true, Reason: ReasonNameAllowlist}
		}
	}

	desc, ok := sp.Meta.String(DescriptionKey)
	if !ok {
		return Result{Reason: ReasonNoMetadata}
	}

	lowered := strings.ToLower(desc)
	for _, kw := range c.keywords {
		if kw != "" && strings.Contains(lowered, kw) {
			return Result{Robot: true, Reason: ReasonKeywordMatch}
		}
	}
	return Result{Reason: ReasonNoMatch}
}
