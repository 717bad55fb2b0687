// Package organize analyzes commit history and proposes squash operations
// for noisy, trivial, or logically related commits, combining rule-based
// detection with an AI analysis pass.
package organize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Size buckets a commit by how much it changed.
type Size string

const (
	SizeTiny    Size = "tiny"
	SizeSmall   Size = "small"
	SizeMedium  Size = "medium"
	SizeLarge   Size = "large"
	SizeUnknown Size = "unknown"
)

// Metrics describes one commit for analysis purposes.
type Metrics struct {
	ID           string
	Message      string
	FilesChanged int
	LinesAdded   int
	LinesDeleted int
	TotalLines   int
	SizeCategory Size
	Files        []string
}

// relatedSimilarity is the message-similarity cutoff above which two small
// commits are considered part of the same logical change.
const relatedSimilarity = 0.6

// trivialPatterns match commit messages that carry no information.
var trivialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?i:fix)$`),
	regexp.MustCompile(`^(?i:wip|tmp)(\s|$)`),
	regexp.MustCompile(`^(?i:typo)`),
	regexp.MustCompile(`^(?i:format)`),
	regexp.MustCompile(`^(?i:style)`),
	regexp.MustCompile(`^(?i:update)$`),
	regexp.MustCompile(`^(?i:cleanup)`),
	regexp.MustCompile(`^[.,;:!?]?\s*$`),
	regexp.MustCompile(`^\s*\d+\s*$`),
	regexp.MustCompile(`^\s*[a-zA-Z]\s*$`),
}

// fixWords flag messages describing corrections.
var fixWords = []string{"fix", "bugfix", "hotfix", "patch", "correct", "repair", "typo", "error", "bug"}

var (
	summaryInsertions = regexp.MustCompile(`(\d+) insertions?\(\+\)`)
	summaryDeletions  = regexp.MustCompile(`(\d+) deletions?\(-\)`)
	summaryFiles      = regexp.MustCompile(`(\d+) files? changed`)
	digits            = regexp.MustCompile(`\d+`)
)

// parseDiffStat extracts file and line counts from diffstat output. The
// summary line is authoritative when present; otherwise per-file rows are
// summed, with changed lines split proportionally between + and - marks.
func parseDiffStat(stat string) (filesChanged, linesAdded, linesDeleted int) {
	var summaryFound bool
	var fileAdded, fileDeleted, fileCount int

	for _, line := range strings.Split(stat, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.Contains(line, "file changed") || strings.Contains(line, "files changed") {
			summaryFound = true
			if m := summaryFiles.FindStringSubmatch(line); m != nil {
				filesChanged, _ = strconv.Atoi(m[1])
			}
			if m := summaryInsertions.FindStringSubmatch(line); m != nil {
				linesAdded, _ = strconv.Atoi(m[1])
			}
			if m := summaryDeletions.FindStringSubmatch(line); m != nil {
				linesDeleted, _ = strconv.Atoi(m[1])
			}
			continue
		}

		idx := strings.IndexByte(line, '|')
		if idx < 0 {
			continue
		}
		fileCount++

		stats := strings.TrimSpace(line[idx+1:])
		nums := digits.FindString(stats)
		if nums == "" {
			continue
		}
		total, _ := strconv.Atoi(nums)
		plus := strings.Count(stats, "+")
		minus := strings.Count(stats, "-")
		switch {
		case plus > 0 && minus > 0:
			fileAdded += total * plus / (plus + minus)
			fileDeleted += total * minus / (plus + minus)
		case plus > 0:
			fileAdded += total
		case minus > 0:
			fileDeleted += total
		}
	}

	if summaryFound {
		if filesChanged == 0 {
			filesChanged = fileCount
		}
		return filesChanged, linesAdded, linesDeleted
	}
	return fileCount, fileAdded, fileDeleted
}

// categorize buckets a commit by size. The tiny threshold is configurable
// because what counts as noise differs between projects.
func categorize(filesChanged, totalLines, tinyThreshold int) Size {
	switch {
	case totalLines <= tinyThreshold && filesChanged <= 1:
		return SizeTiny
	case totalLines <= 20 && filesChanged <= 3:
		return SizeSmall
	case totalLines <= 100 && filesChanged <= 10:
		return SizeMedium
	default:
		return SizeLarge
	}
}

func isTrivialMessage(message string) bool {
	msg := strings.TrimSpace(message)
	for _, p := range trivialPatterns {
		if p.MatchString(msg) {
			return true
		}
	}
	return len(msg) <= 3
}

func isFixMessage(message string) bool {
	lower := strings.ToLower(message)
	for _, w := range fixWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// messageSimilarity computes a [0,1] similarity ratio between two commit
// messages from their diff's Levenshtein distance.
func messageSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	return 1 - float64(distance)/float64(longest)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// areRelated reports whether two commits look like fragments of one
// logical change. Only small commits qualify; large ones stand on their own.
func areRelated(a, b Metrics) bool {
	smallEnough := func(m Metrics) bool {
		return m.SizeCategory == SizeTiny || m.SizeCategory == SizeSmall
	}
	if !smallEnough(a) || !smallEnough(b) {
		return false
	}

	if messageSimilarity(a.Message, b.Message) > relatedSimilarity {
		return true
	}
	if isFixMessage(a.Message) && isFixMessage(b.Message) {
		return true
	}
	return isTrivialMessage(a.Message) && isTrivialMessage(b.Message)
}
