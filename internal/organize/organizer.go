package organize

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vcspilot/vcspilot/internal/completion"
	"github.com/vcspilot/vcspilot/internal/config"
	"github.com/vcspilot/vcspilot/internal/models"
	"github.com/vcspilot/vcspilot/internal/template"
	"github.com/vcspilot/vcspilot/internal/vcs"
)

// Confidence assigned per proposal source. Opaque ranking hints: a
// rule-based tiny-fold is more trustworthy than an AI suggestion, and that
// ordering is all the numbers mean.
const (
	confidenceTinyFold     = 0.9
	confidenceRelatedGroup = 0.8
	confidenceAI           = 0.7
)

// confidenceFloor is the default execution cutoff; --aggressive runs
// proposals below it too.
const confidenceFloor = 0.75

// aiAnalysisCommits caps how many commits get the detailed AI treatment.
const aiAnalysisCommits = 5

// aiAnalysisTokens bounds the analysis response.
const aiAnalysisTokens = 500

// backupRefPrefix names the safety reference created before any rewrite.
const backupRefPrefix = "backup_before_organize_"

// Options tune one analysis run.
type Options struct {
	// Limit is how many commits to examine.
	Limit int

	// TinyThreshold is the changed-line cutoff for tiny detection.
	TinyThreshold int

	// Aggressive also executes proposals under the confidence floor.
	Aggressive bool

	// ExcludePattern drops proposals touching commits whose message or
	// changed files match.
	ExcludePattern *regexp.Regexp
}

// Organizer analyzes history and drives squash execution.
type Organizer struct {
	cfg       *config.Config
	backend   vcs.Backend
	client    completion.Client
	templates *template.Loader
	log       *zap.Logger
}

// New builds an Organizer. A nil client disables the AI analysis pass;
// rule-based proposals still work.
func New(cfg *config.Config, backend vcs.Backend, client completion.Client, templates *template.Loader, log *zap.Logger) *Organizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Organizer{cfg: cfg, backend: backend, client: client, templates: templates, log: log.Named("organize")}
}

// Analyze examines recent history and returns squash proposals, rule-based
// ones first, newest commits first within each.
func (o *Organizer) Analyze(ctx context.Context, opts Options) ([]models.SquashProposal, error) {
	records, err := o.backend.Log(ctx, opts.Limit)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	metrics := o.collectMetrics(ctx, records)

	proposals := ruleProposals(metrics, opts.TinyThreshold)

	aiProposals := o.aiProposals(ctx, records, metrics)
	for _, p := range aiProposals {
		if overlapsAny(p, proposals) {
			continue
		}
		p.Confidence = confidenceAI
		proposals = append(proposals, p)
	}

	if opts.ExcludePattern != nil {
		proposals = o.filterExcluded(proposals, metrics, opts.ExcludePattern)
	}
	return proposals, nil
}

// Eligible reports whether a proposal clears the execution cutoff.
func Eligible(p models.SquashProposal, aggressive bool) bool {
	return aggressive || p.Confidence >= confidenceFloor
}

// Execute applies one proposal. A backup reference is always created
// first; the backend refuses unknown ids and published history.
func (o *Organizer) Execute(ctx context.Context, p models.SquashProposal) (string, error) {
	backup, err := o.backend.CreateBackupRef(ctx, backupRefPrefix+time.Now().Format("20060102_150405"))
	if err != nil {
		return "", err
	}
	o.log.Info("created backup reference", zap.String("ref", backup))

	sources := make([]string, 0, len(p.SourceCommits))
	for _, id := range p.SourceCommits {
		if id != p.TargetCommit {
			sources = append(sources, id)
		}
	}
	if err := o.backend.Squash(ctx, sources, p.TargetCommit, p.SuggestedMessage); err != nil {
		return backup, err
	}
	return backup, nil
}

// collectMetrics gathers per-commit analysis data. A commit whose diffstat
// cannot be read still participates with zeroed numbers so indices stay
// aligned with the log.
func (o *Organizer) collectMetrics(ctx context.Context, records []vcs.CommitRecord) []Metrics {
	metrics := make([]Metrics, 0, len(records))
	for _, rec := range records {
		m := Metrics{ID: rec.ID, Message: rec.Message, SizeCategory: SizeUnknown}

		stat, err := o.backend.DiffStat(ctx, rec.ID)
		if err != nil {
			o.log.Debug("diffstat failed", zap.String("id", rec.ID), zap.Error(err))
			metrics = append(metrics, m)
			continue
		}
		m.FilesChanged, m.LinesAdded, m.LinesDeleted = parseDiffStat(stat)
		m.TotalLines = m.LinesAdded + m.LinesDeleted
		m.SizeCategory = categorize(m.FilesChanged, m.TotalLines, o.cfg.Organize.TinyThreshold)

		if files, err := o.backend.ChangedFiles(ctx, rec.ID); err == nil {
			m.Files = files
		}
		metrics = append(metrics, m)
	}
	return metrics
}

// ruleProposals derives proposals without AI: tiny commits fold into their
// predecessor, and groups of related small commits merge into the newest
// member.
func ruleProposals(metrics []Metrics, tinyThreshold int) []models.SquashProposal {
	var proposals []models.SquashProposal
	claimed := make(map[string]bool)

	// Tiny folds first: highest confidence. metrics is newest-first, so a
	// commit's predecessor sits at the next index.
	for i, m := range metrics {
		if i+1 >= len(metrics) || claimed[m.ID] {
			continue
		}
		tiny := m.SizeCategory == SizeTiny ||
			isTrivialMessage(m.Message) ||
			(isFixMessage(m.Message) && m.TotalLines <= 2*tinyThreshold)
		if !tiny {
			continue
		}

		target := metrics[i+1] // the commit it fixes up, one step older
		if claimed[target.ID] {
			continue
		}

		message := target.Message
		if !isTrivialMessage(m.Message) && m.Message != "" {
			message = target.Message + "; " + m.Message
		}
		proposals = append(proposals, models.SquashProposal{
			SourceCommits:    []string{m.ID},
			TargetCommit:     target.ID,
			Reason:           fmt.Sprintf("tiny commit (%d changed lines) folded into its predecessor", m.TotalLines),
			SuggestedMessage: message,
			Confidence:       confidenceTinyFold,
		})
		claimed[m.ID] = true
		claimed[target.ID] = true
	}

	// Related groups of small commits.
	for i, m := range metrics {
		if claimed[m.ID] {
			continue
		}
		group := []Metrics{m}
		for _, other := range metrics[i+1:] {
			if claimed[other.ID] {
				continue
			}
			if areRelated(m, other) {
				group = append(group, other)
			}
		}
		if len(group) < 2 {
			continue
		}

		var total int
		sources := make([]string, 0, len(group)-1)
		for _, g := range group {
			total += g.TotalLines
			claimed[g.ID] = true
			if g.ID != group[0].ID {
				sources = append(sources, g.ID)
			}
		}
		proposals = append(proposals, models.SquashProposal{
			SourceCommits:    sources,
			TargetCommit:     group[0].ID,
			Reason:           fmt.Sprintf("%d related commits merged (%d changed lines total)", len(group), total),
			SuggestedMessage: group[0].Message,
			Confidence:       confidenceRelatedGroup,
		})
	}
	return proposals
}

// aiProposals runs the completion analysis pass over the newest commits.
// Any failure returns nil: the organizer degrades to rule-based output.
func (o *Organizer) aiProposals(ctx context.Context, records []vcs.CommitRecord, metrics []Metrics) []models.SquashProposal {
	if o.client == nil {
		return nil
	}

	var logText, details strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&logText, "%s %s\n", rec.ID, rec.Message)
	}
	for i, m := range metrics {
		if i >= aiAnalysisCommits {
			break
		}
		fmt.Fprintf(&details, "%s: %s\n%d files, +%d/-%d\n", m.ID, m.Message, m.FilesChanged, m.LinesAdded, m.LinesDeleted)
	}

	prompt, err := o.templates.Render("organize_analysis", map[string]string{
		"log":     strings.TrimSpace(logText.String()),
		"details": strings.TrimSpace(details.String()),
	})
	if err != nil {
		o.log.Warn("analysis template broken", zap.Error(err))
		return nil
	}

	format, _ := json.Marshal(analysisFormat())
	text, err := o.client.Complete(ctx, completion.Request{
		Prompt:      prompt,
		MaxTokens:   aiAnalysisTokens,
		Temperature: o.cfg.Temperature,
		Format:      format,
	})
	if err != nil {
		o.log.Debug("AI analysis failed", zap.Error(err))
		return nil
	}

	var resp models.AnalysisResponse
	if err := json.Unmarshal([]byte(extractJSON(text)), &resp); err != nil {
		o.log.Debug("AI analysis returned non-JSON", zap.Error(err))
		return nil
	}

	var proposals []models.SquashProposal
	for _, p := range resp.Proposals {
		if len(p.SourceCommits) == 0 || p.TargetCommit == "" {
			continue
		}
		proposals = append(proposals, p)
	}
	return proposals
}

// analysisFormat is the JSON schema constraining the analysis response.
func analysisFormat() models.OutputFormat {
	return models.OutputFormat{
		Type: "object",
		Properties: map[string]any{
			"proposals": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"source_commits":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"target_commit":     map[string]any{"type": "string"},
						"reason":            map[string]any{"type": "string"},
						"suggested_message": map[string]any{"type": "string"},
					},
					"required": []string{"source_commits", "target_commit"},
				},
			},
		},
		Required: []string{"proposals"},
	}
}

// filterExcluded drops proposals touching a commit whose message or
// changed files match the exclude pattern.
func (o *Organizer) filterExcluded(proposals []models.SquashProposal, metrics []Metrics, pattern *regexp.Regexp) []models.SquashProposal {
	byID := make(map[string]Metrics, len(metrics))
	for _, m := range metrics {
		byID[m.ID] = m
	}

	matches := func(id string) bool {
		m, ok := byID[id]
		if !ok {
			return false
		}
		if pattern.MatchString(m.Message) {
			return true
		}
		for _, f := range m.Files {
			if pattern.MatchString(f) {
				return true
			}
		}
		return false
	}

	kept := proposals[:0]
	for _, p := range proposals {
		excluded := matches(p.TargetCommit)
		for _, id := range p.SourceCommits {
			if excluded {
				break
			}
			excluded = matches(id)
		}
		if !excluded {
			kept = append(kept, p)
		}
	}
	return kept
}

// overlapsAny reports whether an AI proposal shares source or target
// commits with an existing rule-based proposal.
func overlapsAny(p models.SquashProposal, existing []models.SquashProposal) bool {
	ids := make(map[string]bool, len(p.SourceCommits)+1)
	for _, id := range p.SourceCommits {
		ids[id] = true
	}
	ids[p.TargetCommit] = true

	for _, e := range existing {
		if ids[e.TargetCommit] {
			return true
		}
		for _, id := range e.SourceCommits {
			if ids[id] {
				return true
			}
		}
	}
	return false
}

// extractJSON strips code fences a model may wrap around its JSON answer.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}
