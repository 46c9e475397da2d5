package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
)

func SeedActivity(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Activity {
	tb.Helper()
	a := &types.Activity{ID: uuid.New(), Title: title}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed activity: %v", err)
	}
	return a
}

// SeedItems creates n question items at positions 1..n.
func SeedItems(tb testing.TB, ctx context.Context, tx *gorm.DB, activityID uuid.UUID, n int) []*types.Item {
	tb.Helper()
	out := make([]*types.Item, 0, n)
	for i := 1; i <= n; i++ {
		it := &types.Item{
			ID:         uuid.New(),
			ActivityID: activityID,
			Position:   i,
			Kind:       types.ItemKindQuestion,
			Content:    fmt.Sprintf("question %d", i),
		}
		if err := tx.WithContext(ctx).Create(it).Error; err != nil {
			tb.Fatalf("seed item: %v", err)
		}
		out = append(out, it)
	}
	return out
}

func SeedImage(tb testing.TB, ctx context.Context, tx *gorm.DB, activityID uuid.UUID, numericID int) *types.InfoImage {
	tb.Helper()
	img := &types.InfoImage{
		ID:              uuid.New(),
		ActivityID:      activityID,
		NumericID:       numericID,
		URL:             fmt.Sprintf("https://cdn.example.test/img/%d.png", numericID),
		TextAlternative: fmt.Sprintf("image %d", numericID),
	}
	if err := tx.WithContext(ctx).Create(img).Error; err != nil {
		tb.Fatalf("seed image: %v", err)
	}
	return img
}

func SeedVideo(tb testing.TB, ctx context.Context, tx *gorm.DB, activityID uuid.UUID, numericID int) *types.InfoVideo {
	tb.Helper()
	v := &types.InfoVideo{
		ID:          uuid.New(),
		ActivityID:  activityID,
		NumericID:   numericID,
		URL:         fmt.Sprintf("https://cdn.example.test/vid/%d.mp4", numericID),
		Description: fmt.Sprintf("video %d", numericID),
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed video: %v", err)
	}
	return v
}

func SeedThread(tb testing.TB, ctx context.Context, tx *gorm.DB, activityID, userID uuid.UUID) *types.Thread {
	tb.Helper()
	th := &types.Thread{ID: uuid.New(), ActivityID: activityID, UserID: userID}
	if err := tx.WithContext(ctx).Create(th).Error; err != nil {
		tb.Fatalf("seed thread: %v", err)
	}
	return th
}

// SeedMessage appends a message to th with the next seq.
func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, th *types.Thread, role types.SenderRole, content string, status types.MessageStatus) *types.Message {
	tb.Helper()
	var maxSeq int64
	if err := tx.WithContext(ctx).Model(&types.Message{}).
		Select("COALESCE(MAX(seq), 0)").
		Where("thread_id = ?", th.ID).
		Scan(&maxSeq).Error; err != nil {
		tb.Fatalf("seed message seq: %v", err)
	}
	m := &types.Message{
		ID:         uuid.New(),
		ActivityID: th.ActivityID,
		UserID:     th.UserID,
		ThreadID:   th.ID,
		Seq:        maxSeq + 1,
		SenderRole: role,
		Content:    content,
		Status:     status,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	return m
}

func SeedCompletion(tb testing.TB, ctx context.Context, tx *gorm.DB, item *types.Item, userID, messageID uuid.UUID) *types.Completion {
	tb.Helper()
	c := &types.Completion{
		ID:         uuid.New(),
		ActivityID: item.ActivityID,
		UserID:     userID,
		ItemID:     item.ID,
		MessageID:  messageID,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed completion: %v", err)
	}
	return c
}
