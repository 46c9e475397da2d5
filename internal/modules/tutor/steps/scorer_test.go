package steps

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/summit-backend/internal/data/repos/testutil"
	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/modules/tutor/tagparse"
	"github.com/yungbote/summit-backend/internal/platform/openai"
	"github.com/yungbote/summit-backend/internal/platform/openai/openaitest"
)

func TestDefaultScorerWeights(t *testing.T) {
	s := NewDefaultScorer(testutil.Logger(t), nil, "")
	text := func(s string) tagparse.Fragment { return tagparse.Fragment{Kind: tagparse.FragmentText, Text: s} }
	image := tagparse.Fragment{Kind: tagparse.FragmentImage, Number: 12}

	cases := []struct {
		name  string
		base  string
		frags []tagparse.Fragment
		want  int
	}{
		{name: "clean", base: "Half is bigger than a third.", want: 0},
		{name: "cyrillic base", base: "Половина больше.", want: WeightDisallowedScript},
		{name: "cyrillic fragment", base: "ok", frags: []tagparse.Fragment{text("да"), image}, want: WeightDisallowedScript},
		{name: "leftover disclaimer", base: "See " + ImageOmissionDisclaimer + " here.", want: WeightLeftoverDisclaimer},
		{name: "disclaimer rewritten away", base: "See " + ImageOmissionDisclaimer, frags: []tagparse.Fragment{text("See this:"), image}, want: 0},
		{name: "disclaimer kept in fragment", base: "x", frags: []tagparse.Fragment{text(VideoOmissionDisclaimer)}, want: WeightLeftoverDisclaimer},
		{name: "both", base: "Смотри " + VideoOmissionDisclaimer, want: WeightDisallowedScript + WeightLeftoverDisclaimer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Score(context.Background(), ScoreInput{Base: &types.Message{Content: tc.base}, Fragments: tc.frags})
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if got != tc.want {
				t.Fatalf("score: got=%d want=%d", got, tc.want)
			}
		})
	}
}

func TestRedundantDescriptionJudge(t *testing.T) {
	var reply string
	var replyErr error
	ai := &openaitest.Fake{CompleteFn: func(_ context.Context, _ openai.ChatRequest) (string, error) {
		return reply, replyErr
	}}
	j := RedundantDescriptionJudge{AI: ai, Model: "judge"}
	ctx := context.Background()
	base := &types.Message{Content: "Here is a pie chart split in two halves."}
	withMedia := []tagparse.Fragment{
		{Kind: tagparse.FragmentText, Text: "Here it is:"},
		{Kind: tagparse.FragmentImage, Number: 12},
	}

	found, err := j.Detect(ctx, ScoreInput{Base: base})
	if err != nil || found {
		t.Fatalf("no media should skip the judge: found=%v err=%v", found, err)
	}
	if n := len(ai.CompleteRequests()); n != 0 {
		t.Fatalf("judge called %d times without media", n)
	}

	reply = "REMOVAL_NOT_OK"
	if found, err = j.Detect(ctx, ScoreInput{Base: base, Fragments: withMedia}); err != nil || !found {
		t.Fatalf("REMOVAL_NOT_OK: found=%v err=%v", found, err)
	}
	reqs := ai.CompleteRequests()
	if len(reqs) != 1 || !strings.Contains(reqs[0].Messages[0].Content, "(IMAGE HERE)") {
		t.Fatalf("judge prompt missing media placeholder: %+v", reqs)
	}

	reply = "REMOVAL_OK"
	if found, err = j.Detect(ctx, ScoreInput{Base: base, Fragments: withMedia}); err != nil || found {
		t.Fatalf("REMOVAL_OK: found=%v err=%v", found, err)
	}

	replyErr = errors.New("rate limited")
	s := NewCompositeScorer(testutil.Logger(t), WeightedCheck{Check: j, Weight: WeightRedundantDescription})
	if _, err := s.Score(ctx, ScoreInput{Base: base, Fragments: withMedia}); !errors.Is(err, replyErr) {
		t.Fatalf("judge failure should surface, got %v", err)
	}
}
