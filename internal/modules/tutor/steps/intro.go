package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/modules/tutor/mediacodec"
	"github.com/yungbote/summit-backend/internal/modules/tutor/tagparse"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
)

// IntroInput is everything the opening messages of a thread are built from.
type IntroInput struct {
	Activity    *types.Activity
	Items       []*types.Item
	Completions []*types.Completion
	Images      []*types.InfoImage
	Videos      []*types.InfoVideo
	// Conclusion of the predecessor thread, if any.
	Conclusion *string
}

// BuildIntroMessages returns the system prompt and the assistant greeting that
// open thread. Media appear only as disclaimers plus text stand-ins, keyed by
// their external numbers.
func BuildIntroMessages(codec *mediacodec.Codec, thread *types.Thread, in IntroInput) []*types.Message {
	completed := map[string]bool{}
	for _, c := range in.Completions {
		completed[c.ItemID.String()] = true
	}
	attached := map[uuid.UUID]bool{}

	var b strings.Builder
	b.WriteString(tutorSystemPrompt)
	title := ""
	if in.Activity != nil {
		title = in.Activity.Title
		fmt.Fprintf(&b, "\n\nActivity: %s", in.Activity.Title)
		if d := strings.TrimSpace(in.Activity.Description); d != "" {
			fmt.Fprintf(&b, "\n%s", d)
		}
	}
	b.WriteString("\n\nItems:")
	for i, it := range in.Items {
		fmt.Fprintf(&b, "\n%d. [%s] %s", i+1, itemState(completed[it.ID.String()]), it.Content)
		for _, img := range in.Images {
			if img.ItemID != nil && *img.ItemID == it.ID {
				writeImage(&b, codec, img)
				attached[img.ID] = true
			}
		}
		for _, v := range in.Videos {
			if v.ItemID != nil && *v.ItemID == it.ID {
				writeVideo(&b, codec, v)
				attached[v.ID] = true
			}
		}
	}
	var loose strings.Builder
	for _, img := range in.Images {
		if !attached[img.ID] {
			writeImage(&loose, codec, img)
		}
	}
	for _, v := range in.Videos {
		if !attached[v.ID] {
			writeVideo(&loose, codec, v)
		}
	}
	if loose.Len() > 0 {
		b.WriteString("\n\nOther media:")
		b.WriteString(loose.String())
	}
	if in.Conclusion != nil && strings.TrimSpace(*in.Conclusion) != "" {
		fmt.Fprintf(&b, "\n\nSummary of the previous conversation:\n%s", strings.TrimSpace(*in.Conclusion))
	}

	return []*types.Message{
		{
			ActivityID: thread.ActivityID,
			UserID:     thread.UserID,
			ThreadID:   thread.ID,
			SenderRole: types.SenderSystem,
			Content:    b.String(),
			Status:     types.MessageCompleteWithoutViewPieces,
		},
		{
			ActivityID: thread.ActivityID,
			UserID:     thread.UserID,
			ThreadID:   thread.ID,
			SenderRole: types.SenderAssistant,
			Content:    fmt.Sprintf(introGreeting, title),
			Status:     types.MessageCompleteWithoutViewPieces,
		},
	}
}

func writeImage(b *strings.Builder, codec *mediacodec.Codec, img *types.InfoImage) {
	n, err := codec.Encode(tagparse.FragmentImage, img.NumericID)
	if err != nil {
		return
	}
	fmt.Fprintf(b, "\n   %s Image %d: %s", ImageOmissionDisclaimer, n, img.TextAlternative)
}

func writeVideo(b *strings.Builder, codec *mediacodec.Codec, v *types.InfoVideo) {
	n, err := codec.Encode(tagparse.FragmentVideo, v.NumericID)
	if err != nil {
		return
	}
	fmt.Fprintf(b, "\n   %s Video %d: %s", VideoOmissionDisclaimer, n, v.Description)
}

func loadIntroInput(deps Deps, dbc dbctx.Context, activityID, userID uuid.UUID) (IntroInput, error) {
	var (
		in  IntroInput
		err error
	)
	if in.Activity, err = deps.Activities.GetByID(dbc, activityID); err != nil {
		return in, err
	}
	if in.Items, err = deps.Items.ListByActivity(dbc, activityID); err != nil {
		return in, err
	}
	if in.Completions, err = deps.Completions.ListByActivityUser(dbc, activityID, userID); err != nil {
		return in, err
	}
	if in.Images, err = deps.Catalog.ListImages(dbc, activityID); err != nil {
		return in, err
	}
	if in.Videos, err = deps.Catalog.ListVideos(dbc, activityID); err != nil {
		return in, err
	}
	return in, nil
}

// seedThread creates thread and its intro messages inside dbc.Tx.
func seedThread(deps Deps, dbc dbctx.Context, thread *types.Thread, conclusion *string) ([]*types.Message, error) {
	if err := deps.Threads.Create(dbc, thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	in, err := loadIntroInput(deps, dbc, thread.ActivityID, thread.UserID)
	if err != nil {
		return nil, fmt.Errorf("load intro data: %w", err)
	}
	in.Conclusion = conclusion
	msgs, err := deps.Messages.Create(dbc, BuildIntroMessages(deps.Codec, thread, in))
	if err != nil {
		return nil, fmt.Errorf("create intro messages: %w", err)
	}
	return msgs, nil
}

type StartThreadInput struct {
	ActivityID uuid.UUID
	UserID     uuid.UUID
}

type StartThreadOutput struct {
	Thread   *types.Thread
	Messages []*types.Message
}

// StartThread opens the first thread of an activity for a user.
func StartThread(ctx context.Context, deps Deps, in StartThreadInput) (StartThreadOutput, error) {
	out := StartThreadOutput{}
	if deps.DB == nil || deps.Log == nil || deps.Activities == nil || deps.Threads == nil || deps.Messages == nil || deps.Notify == nil || deps.Codec == nil {
		return out, fmt.Errorf("start thread: missing deps")
	}
	if in.ActivityID == uuid.Nil || in.UserID == uuid.Nil {
		return out, fmt.Errorf("start thread: missing activity_id or user_id")
	}

	thread := &types.Thread{ActivityID: in.ActivityID, UserID: in.UserID}
	err := deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		msgs, err := seedThread(deps, dbc, thread, nil)
		if err != nil {
			return err
		}
		out.Messages = msgs
		return nil
	})
	if err != nil {
		return StartThreadOutput{}, fmt.Errorf("start thread: %w", err)
	}
	out.Thread = thread

	deps.Notify.ThreadsUpserted(ctx, in.UserID, thread)
	deps.Notify.MessagesUpserted(ctx, in.UserID, out.Messages...)
	deps.Log.Info("Thread started", "thread_id", thread.ID, "activity_id", in.ActivityID)
	return out, nil
}
