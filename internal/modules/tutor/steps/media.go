package steps

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/modules/tutor/mediacodec"
	"github.com/yungbote/summit-backend/internal/modules/tutor/tagparse"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
)

const mediaAnalyzer = "media"

type MediaOutput struct {
	// Fragments is the accepted rewrite; empty when nothing was injected.
	Fragments     []tagparse.Fragment
	Pieces        []*types.ViewPiece
	HasViewPieces bool
}

// mediaCatalog holds an activity's media keyed by catalog numeric id. The
// model only ever sees external numbers, which go through the codec both ways.
type mediaCatalog struct {
	codec  *mediacodec.Codec
	images map[int]*types.InfoImage
	videos map[int]*types.InfoVideo
}

func (c mediaCatalog) empty() bool { return len(c.images) == 0 && len(c.videos) == 0 }

func (c mediaCatalog) image(external int) *types.InfoImage {
	id, ok := c.codec.Decode(tagparse.FragmentImage, external)
	if !ok {
		return nil
	}
	return c.images[id]
}

func (c mediaCatalog) video(external int) *types.InfoVideo {
	id, ok := c.codec.Decode(tagparse.FragmentVideo, external)
	if !ok {
		return nil
	}
	return c.videos[id]
}

func (c mediaCatalog) resolve(kind tagparse.FragmentKind, number int) bool {
	switch kind {
	case tagparse.FragmentImage:
		return c.image(number) != nil
	case tagparse.FragmentVideo:
		return c.video(number) != nil
	}
	return false
}

func (c mediaCatalog) render() string {
	var b strings.Builder
	for _, id := range slices.Sorted(maps.Keys(c.images)) {
		n, _ := c.codec.Encode(tagparse.FragmentImage, id)
		fmt.Fprintf(&b, "%d (image): %s\n", n, c.images[id].TextAlternative)
	}
	for _, id := range slices.Sorted(maps.Keys(c.videos)) {
		n, _ := c.codec.Encode(tagparse.FragmentVideo, id)
		fmt.Fprintf(&b, "%d (video): %s\n", n, c.videos[id].Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func loadMediaCatalog(ctx context.Context, deps Deps, activityID uuid.UUID) (mediaCatalog, error) {
	dbc := dbctx.Context{Ctx: ctx}
	cat := mediaCatalog{codec: deps.Codec, images: map[int]*types.InfoImage{}, videos: map[int]*types.InfoVideo{}}
	images, err := deps.Catalog.ListImages(dbc, activityID)
	if err != nil {
		return cat, err
	}
	for _, img := range images {
		if _, err := deps.Codec.Encode(tagparse.FragmentImage, img.NumericID); err != nil {
			deps.Log.Warn("Skipping image outside codec range", "image_id", img.ID, "numeric_id", img.NumericID)
			continue
		}
		cat.images[img.NumericID] = img
	}
	videos, err := deps.Catalog.ListVideos(dbc, activityID)
	if err != nil {
		return cat, err
	}
	for _, v := range videos {
		if _, err := deps.Codec.Encode(tagparse.FragmentVideo, v.NumericID); err != nil {
			deps.Log.Warn("Skipping video outside codec range", "video_id", v.ID, "numeric_id", v.NumericID)
			continue
		}
		cat.videos[v.NumericID] = v
	}
	return cat, nil
}

// InjectMedia rewrites the attempt into ordered view pieces when the tutor
// referred to media it could only see as a text stand-in.
func InjectMedia(ctx context.Context, deps Deps, in EnrichInput) (MediaOutput, error) {
	out := MediaOutput{}
	if err := in.validate(); err != nil {
		return out, fmt.Errorf("inject media: %w", err)
	}
	deps.Config = deps.Config.withDefaults()
	if !priorHasDisclaimer(in.Prior) {
		return out, nil
	}
	cat, err := loadMediaCatalog(ctx, deps, in.Thread.ActivityID)
	if err != nil {
		return out, fmt.Errorf("inject media: load catalog: %w", err)
	}
	if cat.empty() {
		return out, nil
	}

	prompt := fmt.Sprintf(mediaPrompt, cat.render(), renderTranscript(in.Prior), in.Message.Content)
	res, err := runAnalyzer(ctx, deps, mediaAnalyzer, deps.Config.MediaModel, prompt,
		func(reply string) (tagparse.MediaResult, error) {
			return tagparse.ParseMedia(reply, cat.resolve)
		})
	if err != nil {
		return out, err
	}
	if res.NoMedia || !res.HasMedia() {
		return out, nil
	}

	shown, err := shownMedia(ctx, deps, in.Prior)
	if err != nil {
		return out, fmt.Errorf("inject media: load earlier view pieces: %w", err)
	}
	if allShown(res.Fragments, cat, shown) {
		deps.Log.Debug("Media already shown in thread; skipping injection", "message_id", in.Message.ID)
		return out, nil
	}

	pieces := buildViewPieces(in.Message.ID, res.Fragments, cat)
	created, err := deps.ViewPieces.CreateBatch(dbctx.Context{Ctx: ctx}, pieces)
	if err != nil {
		return out, fmt.Errorf("inject media: persist: %w", err)
	}
	deps.Notify.ViewPiecesUpserted(ctx, in.Thread.UserID, in.Message.ID, created)

	out.Fragments = res.Fragments
	out.Pieces = created
	out.HasViewPieces = true
	return out, nil
}

func priorHasDisclaimer(prior []*types.Message) bool {
	for _, m := range prior {
		if m == nil {
			continue
		}
		if img, vid := containsDisclaimer(m.Content); img || vid {
			return true
		}
	}
	return false
}

func shownMedia(ctx context.Context, deps Deps, prior []*types.Message) (map[uuid.UUID]bool, error) {
	ids := make([]uuid.UUID, 0, len(prior))
	for _, m := range prior {
		if m != nil && m.SenderRole == types.SenderAssistant {
			ids = append(ids, m.ID)
		}
	}
	pieces, err := deps.ViewPieces.ListByMessages(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		return nil, err
	}
	shown := map[uuid.UUID]bool{}
	for _, p := range pieces {
		switch {
		case p.Image != nil:
			shown[p.Image.ImageID] = true
		case p.Video != nil:
			shown[p.Video.VideoID] = true
		}
	}
	return shown, nil
}

func allShown(frags []tagparse.Fragment, cat mediaCatalog, shown map[uuid.UUID]bool) bool {
	for _, f := range frags {
		switch f.Kind {
		case tagparse.FragmentImage:
			if !shown[cat.image(f.Number).ID] {
				return false
			}
		case tagparse.FragmentVideo:
			if !shown[cat.video(f.Number).ID] {
				return false
			}
		}
	}
	return true
}

func buildViewPieces(messageID uuid.UUID, frags []tagparse.Fragment, cat mediaCatalog) []*types.ViewPiece {
	pieces := make([]*types.ViewPiece, 0, len(frags))
	for _, f := range frags {
		p := &types.ViewPiece{MessageID: messageID, Order: len(pieces) + 1}
		switch f.Kind {
		case tagparse.FragmentText:
			p.Text = &types.ViewPieceText{Content: f.Text}
		case tagparse.FragmentImage:
			p.Image = &types.ViewPieceImage{ImageID: cat.image(f.Number).ID}
		case tagparse.FragmentVideo:
			p.Video = &types.ViewPieceVideo{VideoID: cat.video(f.Number).ID}
		default:
			continue
		}
		pieces = append(pieces, p)
	}
	return pieces
}
