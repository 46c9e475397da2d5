package steps

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/modules/tutor/tagparse"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/platform/openai"
)

const (
	WeightDisallowedScript     = 10
	WeightLeftoverDisclaimer   = 5
	WeightRedundantDescription = 3
)

// ScoreInput is an enriched attempt. Fragments is empty when no media was
// injected.
type ScoreInput struct {
	Base      *types.Message
	Fragments []tagparse.Fragment
}

func (in ScoreInput) baseContent() string {
	if in.Base == nil {
		return ""
	}
	return in.Base.Content
}

func (in ScoreInput) textFragments() []string {
	var out []string
	for _, f := range in.Fragments {
		if f.Kind == tagparse.FragmentText {
			out = append(out, f.Text)
		}
	}
	return out
}

// rendered is what the student reads: the text fragments when there are any,
// otherwise the base content.
func (in ScoreInput) rendered() string {
	if texts := in.textFragments(); len(texts) > 0 {
		return strings.Join(texts, "\n")
	}
	return in.baseContent()
}

func (in ScoreInput) hasMedia() bool {
	return tagparse.MediaResult{Fragments: in.Fragments}.HasMedia()
}

// Scorer returns a non-negative defect score; 0 means defect-free.
type Scorer interface {
	Score(ctx context.Context, in ScoreInput) (int, error)
}

// Check detects one kind of defect.
type Check interface {
	Name() string
	Detect(ctx context.Context, in ScoreInput) (bool, error)
}

type WeightedCheck struct {
	Check  Check
	Weight int
}

// CompositeScorer sums the weights of the checks that detect a defect.
type CompositeScorer struct {
	log    *logger.Logger
	checks []WeightedCheck
}

func NewCompositeScorer(log *logger.Logger, checks ...WeightedCheck) *CompositeScorer {
	return &CompositeScorer{log: log.With("component", "Scorer"), checks: checks}
}

// NewDefaultScorer builds the production check set. The judge is added only
// when ai is non-nil.
func NewDefaultScorer(log *logger.Logger, ai openai.Client, judgeModel string) *CompositeScorer {
	checks := []WeightedCheck{
		{Check: DisallowedScriptCheck{}, Weight: WeightDisallowedScript},
		{Check: LeftoverDisclaimerCheck{}, Weight: WeightLeftoverDisclaimer},
	}
	if ai != nil {
		checks = append(checks, WeightedCheck{
			Check:  RedundantDescriptionJudge{AI: ai, Model: judgeModel},
			Weight: WeightRedundantDescription,
		})
	}
	return NewCompositeScorer(log, checks...)
}

func (s *CompositeScorer) Score(ctx context.Context, in ScoreInput) (int, error) {
	total := 0
	var hits []string
	for _, wc := range s.checks {
		found, err := wc.Check.Detect(ctx, in)
		if err != nil {
			return 0, fmt.Errorf("score: %s: %w", wc.Check.Name(), err)
		}
		if found {
			total += wc.Weight
			hits = append(hits, wc.Check.Name())
		}
	}
	if total > 0 {
		s.log.Debug("Attempt has defects", "score", total, "checks", hits)
	}
	return total, nil
}

// DisallowedScriptCheck flags any rune from Tables in the base content or a
// text fragment. Tables defaults to Cyrillic.
type DisallowedScriptCheck struct {
	Tables []*unicode.RangeTable
}

func (DisallowedScriptCheck) Name() string { return "disallowed_script" }

func (c DisallowedScriptCheck) Detect(_ context.Context, in ScoreInput) (bool, error) {
	tables := c.Tables
	if len(tables) == 0 {
		tables = []*unicode.RangeTable{unicode.Cyrillic}
	}
	texts := append([]string{in.baseContent()}, in.textFragments()...)
	for _, s := range texts {
		for _, r := range s {
			if unicode.In(r, tables...) {
				return true, nil
			}
		}
	}
	return false, nil
}

type LeftoverDisclaimerCheck struct{}

func (LeftoverDisclaimerCheck) Name() string { return "leftover_disclaimer" }

func (LeftoverDisclaimerCheck) Detect(_ context.Context, in ScoreInput) (bool, error) {
	img, vid := containsDisclaimer(in.rendered())
	return img || vid, nil
}

// RedundantDescriptionJudge asks the model whether an injected rewrite still
// describes the media it now shows.
type RedundantDescriptionJudge struct {
	AI    openai.Client
	Model string
}

func (RedundantDescriptionJudge) Name() string { return "redundant_description" }

func (j RedundantDescriptionJudge) Detect(ctx context.Context, in ScoreInput) (bool, error) {
	if !in.hasMedia() {
		return false, nil
	}
	var b strings.Builder
	for _, f := range in.Fragments {
		switch f.Kind {
		case tagparse.FragmentImage:
			b.WriteString("(IMAGE HERE)")
		case tagparse.FragmentVideo:
			b.WriteString("(VIDEO HERE)")
		default:
			b.WriteString(f.Text)
		}
		b.WriteString("\n")
	}
	reply, err := j.AI.Complete(ctx, singleShot(j.Model, fmt.Sprintf(judgePrompt, in.baseContent(), b.String())))
	if err != nil {
		return false, err
	}
	return strings.Contains(reply, "REMOVAL_NOT_OK"), nil
}
