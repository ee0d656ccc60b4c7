package evidence

import (
	"regexp"
	"strings"
)

// ClassificationConfig carries the configurable label and title-pattern
// rules used to classify an event's WorkType.
type ClassificationConfig struct {
	FeatureLabels       []string
	BugLabels           []string
	RefactorLabels      []string
	ChoreLabels         []string
	DocumentationLabels []string

	featureTitle  []*regexp.Regexp
	bugTitle      []*regexp.Regexp
	refactorTitle []*regexp.Regexp
	choreTitle    []*regexp.Regexp

	featureTitlePrefix  []*regexp.Regexp
	bugTitlePrefix      []*regexp.Regexp
	refactorTitlePrefix []*regexp.Regexp
	choreTitlePrefix    []*regexp.Regexp
}

func compilePatterns(patterns ...string) (all, prefixOnly []*regexp.Regexp) {
	for _, p := range patterns {
		re := regexp.MustCompile("(?i)" + p)
		all = append(all, re)
		if strings.HasPrefix(p, "^") {
			prefixOnly = append(prefixOnly, re)
		}
	}
	return all, prefixOnly
}

// DefaultClassificationConfig returns the built-in label and
// title-pattern rules.
func DefaultClassificationConfig() ClassificationConfig {
	var cfg ClassificationConfig
	cfg.FeatureLabels = []string{"feature", "enhancement", "new feature", "feat"}
	cfg.BugLabels = []string{"bug", "bugfix", "fix", "defect", "hotfix"}
	cfg.RefactorLabels = []string{"refactor", "refactoring", "tech debt", "technical debt", "cleanup"}
	cfg.ChoreLabels = []string{"chore", "maintenance", "dependencies", "deps", "ci", "build"}
	cfg.DocumentationLabels = []string{"documentation", "docs", "doc"}

	// The bug title rule "standalone fix/fixes/fixed, not after a hyphen"
	// needs lookbehind/lookahead, which RE2 lacks, so it is not in the
	// bugTitle list below and is implemented separately in matchesBugWord.
	cfg.featureTitle, cfg.featureTitlePrefix = compilePatterns(
		`^feat(\(.+\))?:`, `^add\s`, `^implement\s`, `^introduce\s`)
	cfg.bugTitle, cfg.bugTitlePrefix = compilePatterns(
		`^fix(\(.+\))?:`, `^bugfix:`, `^hotfix:`)
	cfg.refactorTitle, cfg.refactorTitlePrefix = compilePatterns(
		`^refactor(\(.+\))?:`, `\brefactor\b`, `\bcleanup\b`)
	cfg.choreTitle, cfg.choreTitlePrefix = compilePatterns(
		`^chore(\(.+\))?:`, `^ci(\(.+\))?:`, `^build(\(.+\))?:`,
		`\bdependenc(y|ies)\b`, `\bbump\b`, `^update\s+.*dependenc`)

	return cfg
}

func normaliseLabel(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func labelsMatch(labels []string, candidates []string) bool {
	set := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		set[normaliseLabel(c)] = struct{}{}
	}
	for _, l := range labels {
		if _, ok := set[normaliseLabel(l)]; ok {
			return true
		}
	}
	return false
}

// ClassifyByLabels classifies by explicit label, most specific first:
// bug > feature > refactor > documentation > chore.
func ClassifyByLabels(labels []string, cfg ClassificationConfig) (WorkType, bool) {
	switch {
	case labelsMatch(labels, cfg.BugLabels):
		return WorkTypeBug, true
	case labelsMatch(labels, cfg.FeatureLabels):
		return WorkTypeFeature, true
	case labelsMatch(labels, cfg.RefactorLabels):
		return WorkTypeRefactor, true
	case labelsMatch(labels, cfg.DocumentationLabels):
		return WorkTypeDocumentation, true
	case labelsMatch(labels, cfg.ChoreLabels):
		return WorkTypeChore, true
	default:
		return "", false
	}
}

func anyMatch(lowered string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(lowered) {
			return true
		}
	}
	return false
}

// matchesBugWord finds a standalone "fix"/"fixes"/"fixed" not
// immediately preceded by a letter or hyphen and not immediately
// followed by a letter. RE2 has no lookarounds, so the boundary check
// is done by hand.
func matchesBugWord(lowered string) bool {
	for i := 0; i+3 <= len(lowered); i++ {
		if lowered[i:i+3] != "fix" {
			continue
		}
		if i > 0 {
			c := lowered[i-1]
			if isASCIILetter(c) || c == '-' {
				continue
			}
		}
		end := i + 3
		if strings.HasPrefix(lowered[end:], "es") || strings.HasPrefix(lowered[end:], "ed") {
			end += 2
		}
		if end < len(lowered) && isASCIILetter(lowered[end]) {
			continue
		}
		return true
	}
	return false
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ClassifyByTitle classifies by title/message heuristics. Prefix
// patterns (conventional-commit style) are checked first, in
// bug > chore > feature > refactor order so "ci: fix X" lands on CHORE
// rather than BUG; general patterns then fall back to
// bug > feature > refactor > chore order.
func ClassifyByTitle(title *string, cfg ClassificationConfig) (WorkType, bool) {
	if title == nil {
		return "", false
	}
	lowered := strings.ToLower(*title)

	if anyMatch(lowered, cfg.bugTitlePrefix) {
		return WorkTypeBug, true
	}
	if anyMatch(lowered, cfg.choreTitlePrefix) {
		return WorkTypeChore, true
	}
	if anyMatch(lowered, cfg.featureTitlePrefix) {
		return WorkTypeFeature, true
	}
	if anyMatch(lowered, cfg.refactorTitlePrefix) {
		return WorkTypeRefactor, true
	}

	if matchesBugWord(lowered) || anyMatch(lowered, cfg.bugTitle) {
		return WorkTypeBug, true
	}
	if anyMatch(lowered, cfg.featureTitle) {
		return WorkTypeFeature, true
	}
	if anyMatch(lowered, cfg.refactorTitle) {
		return WorkTypeRefactor, true
	}
	if anyMatch(lowered, cfg.choreTitle) {
		return WorkTypeChore, true
	}
	return "", false
}

// ClassifyPullRequest classifies by labels, falling back to title.
func ClassifyPullRequest(labels []string, title *string, cfg ClassificationConfig) WorkType {
	if wt, ok := ClassifyByLabels(labels, cfg); ok {
		return wt
	}
	if wt, ok := ClassifyByTitle(title, cfg); ok {
		return wt
	}
	return WorkTypeUnknown
}

// ClassifyIssue classifies by labels, falling back to title.
func ClassifyIssue(labels []string, title *string, cfg ClassificationConfig) WorkType {
	if wt, ok := ClassifyByLabels(labels, cfg); ok {
		return wt
	}
	if wt, ok := ClassifyByTitle(title, cfg); ok {
		return wt
	}
	return WorkTypeUnknown
}

// ClassifyCommit classifies a commit by its message alone.
func ClassifyCommit(message *string, cfg ClassificationConfig) WorkType {
	if wt, ok := ClassifyByTitle(message, cfg); ok {
		return wt
	}
	return WorkTypeUnknown
}

// IsMergeCommit reports whether a commit message looks like a merge.
func IsMergeCommit(message *string) bool {
	if message == nil {
		return false
	}
	lowered := strings.ToLower(*message)
	return strings.HasPrefix(lowered, "merge ") || strings.HasPrefix(lowered, "merge pull request")
}
