package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	httpH "github.com/yungbote/summit-backend/internal/http/handlers"
	httpMW "github.com/yungbote/summit-backend/internal/http/middleware"
	"github.com/yungbote/summit-backend/internal/modules/tutor"
	"github.com/yungbote/summit-backend/internal/observability"
	pkgerrors "github.com/yungbote/summit-backend/internal/pkg/errors"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

const secret = "router-secret"

type fakeTutor struct {
	posted  []tutor.PostMessageInput
	started []tutor.StartThreadInput
	postErr error
}

func (f *fakeTutor) StartThread(_ context.Context, in tutor.StartThreadInput) (tutor.StartThreadOutput, error) {
	f.started = append(f.started, in)
	th := &types.Thread{ID: uuid.New(), ActivityID: in.ActivityID, UserID: in.UserID}
	return tutor.StartThreadOutput{Thread: th}, nil
}

func (f *fakeTutor) GetThread(_ context.Context, userID, threadID uuid.UUID) (*types.Thread, error) {
	return nil, fmt.Errorf("thread %s: %w", threadID, pkgerrors.ErrNotFound)
}

func (f *fakeTutor) ListMessages(_ context.Context, userID, threadID uuid.UUID) ([]*types.Message, error) {
	return []*types.Message{{ID: uuid.New(), ThreadID: threadID, UserID: userID, Content: "hi"}}, nil
}

func (f *fakeTutor) PostUserMessage(_ context.Context, in tutor.PostMessageInput) (*types.Message, error) {
	f.posted = append(f.posted, in)
	if f.postErr != nil {
		return nil, f.postErr
	}
	return &types.Message{ID: uuid.New(), ThreadID: in.ThreadID, UserID: in.UserID, Content: in.Content}, nil
}

func newTestRouter(t *testing.T, svc *fakeTutor) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	return NewRouter(RouterConfig{
		Log:            log,
		Metrics:        observability.Init(true),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, secret),
		HealthHandler:  httpH.NewHealthHandler(nil),
		TutorHandler:   httpH.NewTutorHandler(log, svc),
	})
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + s
}

func do(r *gin.Engine, method, path, auth string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	r := newTestRouter(t, &fakeTutor{})
	if rec := do(r, nethttp.MethodGet, "/healthcheck", "", nil); rec.Code != nethttp.StatusOK {
		t.Fatalf("healthcheck: %d", rec.Code)
	}
	rec := do(r, nethttp.MethodGet, "/metrics", "", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "summit_api_requests_total") {
		t.Fatalf("metrics body missing api counter")
	}
}

func TestPostMessageAcceptsAndForwards(t *testing.T) {
	svc := &fakeTutor{}
	r := newTestRouter(t, svc)
	userID, threadID := uuid.New(), uuid.New()

	rec := do(r, nethttp.MethodPost, "/api/threads/"+threadID.String()+"/messages", bearer(t, userID), map[string]string{"content": "what is 1/2 + 1/4?"})
	if rec.Code != nethttp.StatusAccepted {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if len(svc.posted) != 1 {
		t.Fatalf("expected one forwarded message, got %d", len(svc.posted))
	}
	got := svc.posted[0]
	if got.UserID != userID || got.ThreadID != threadID || got.Content != "what is 1/2 + 1/4?" {
		t.Fatalf("unexpected input: %+v", got)
	}
}

func TestPostMessageErrors(t *testing.T) {
	userID := uuid.New()
	cases := []struct {
		name   string
		path   string
		auth   string
		err    error
		status int
	}{
		{name: "no token", path: "/api/threads/" + uuid.NewString() + "/messages", status: nethttp.StatusUnauthorized},
		{name: "bad thread id", path: "/api/threads/nope/messages", auth: bearer(t, userID), status: nethttp.StatusBadRequest},
		{name: "empty content", path: "/api/threads/" + uuid.NewString() + "/messages", auth: bearer(t, userID), err: fmt.Errorf("empty message: %w", pkgerrors.ErrInvalidArgument), status: nethttp.StatusBadRequest},
		{name: "foreign thread", path: "/api/threads/" + uuid.NewString() + "/messages", auth: bearer(t, userID), err: pkgerrors.ErrNotFound, status: nethttp.StatusNotFound},
		{name: "rotated thread", path: "/api/threads/" + uuid.NewString() + "/messages", auth: bearer(t, userID), err: pkgerrors.ErrConflict, status: nethttp.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, &fakeTutor{postErr: tc.err})
			rec := do(r, nethttp.MethodPost, tc.path, tc.auth, map[string]string{"content": "x"})
			if rec.Code != tc.status {
				t.Fatalf("status: got=%d want=%d body=%s", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

func TestStartThreadAndReads(t *testing.T) {
	svc := &fakeTutor{}
	r := newTestRouter(t, svc)
	userID, activityID := uuid.New(), uuid.New()
	auth := bearer(t, userID)

	rec := do(r, nethttp.MethodPost, "/api/activities/"+activityID.String()+"/threads", auth, nil)
	if rec.Code != nethttp.StatusCreated {
		t.Fatalf("start thread: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if len(svc.started) != 1 || svc.started[0].ActivityID != activityID || svc.started[0].UserID != userID {
		t.Fatalf("unexpected start input: %+v", svc.started)
	}

	threadID := uuid.New()
	rec = do(r, nethttp.MethodGet, "/api/threads/"+threadID.String()+"/messages", auth, nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("list messages: %d", rec.Code)
	}
	var body struct {
		Messages []types.Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Messages) != 1 || body.Messages[0].ThreadID != threadID {
		t.Fatalf("unexpected messages: %+v", body.Messages)
	}

	if rec := do(r, nethttp.MethodGet, "/api/threads/"+threadID.String(), auth, nil); rec.Code != nethttp.StatusNotFound {
		t.Fatalf("get thread: got=%d want=404", rec.Code)
	}
}
