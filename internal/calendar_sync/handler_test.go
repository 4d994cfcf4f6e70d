package calendarsync

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulo-duarte/chronos-calendar-sync/internal/auth"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/token"
)

type recordingService struct {
	mu      sync.Mutex
	calls   []string
	reqs    []SyncRequest
	err     error
	release chan struct{}
	running atomic.Int32
}

func (s *recordingService) record(direction string, req SyncRequest) {
	s.running.Add(1)
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	s.calls = append(s.calls, direction)
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
}

func (s *recordingService) Push(_ context.Context, req SyncRequest) (*SyncSummary, error) {
	s.record("push", req)
	if s.err != nil {
		return nil, s.err
	}
	return &SyncSummary{Created: 1}, nil
}

func (s *recordingService) Pull(_ context.Context, req SyncRequest) (*PullSummary, error) {
	s.record("pull", req)
	if s.err != nil {
		return nil, s.err
	}
	return &PullSummary{Pulled: 2}, nil
}

func (s *recordingService) TwoWay(_ context.Context, req SyncRequest) (*TwoWaySummary, error) {
	s.record("two_way", req)
	if s.err != nil {
		return nil, s.err
	}
	return &TwoWaySummary{Push: &SyncSummary{}, Pull: &PullSummary{}}, nil
}

func setupAuth(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "calendar-sync-handler-test-secret")
	auth.Init()
}

func signed(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := auth.GenerateJWT(userID, role, time.Minute)
	require.NoError(t, err)
	return tok
}

func postSync(t *testing.T, h http.Handler, bearer string, body interface{}) (*httptest.ResponseRecorder, SyncResponseDTO) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp SyncResponseDTO
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestNormalizeAction(t *testing.T) {
	cases := map[string]Action{
		"push":             ActionPush,
		"sync":             ActionPush,
		"system_to_google": ActionPush,
		" PUSH ":           ActionPush,
		"pull":             ActionPull,
		"google_to_system": ActionPull,
		"two_way":          ActionTwoWay,
		"":                 ActionTwoWay,
		"whatever":         ActionTwoWay,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeAction(in), "input %q", in)
	}
}

func TestSync_RunsNormalizedAction(t *testing.T) {
	setupAuth(t)
	svc := &recordingService{}
	routes := Routes(NewHandler(svc))

	rec, resp := postSync(t, routes, signed(t, "user-1", auth.RoleUser), SyncRequestDTO{
		Action:  "system_to_google",
		TimeMin: "2024-03-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ActionPush, resp.Action)
	assert.Empty(t, resp.Error)
	assert.NotNil(t, resp.Summary)

	require.Len(t, svc.reqs, 1)
	assert.Equal(t, []string{"push"}, svc.calls)
	assert.Equal(t, "user-1", svc.reqs[0].UserID)
	assert.Equal(t, "2024-03-01T00:00:00Z", svc.reqs[0].TimeMin)

	var body struct {
		Summary map[string]interface{} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body.Summary["created"])
}

func TestSync_ErrorsAreReportedWith200(t *testing.T) {
	setupAuth(t)
	svc := &recordingService{err: fail(StageAuthorize, &token.RefreshFailedError{
		Detail: "invalid_grant: Token has been expired or revoked.",
		Err:    errBoom,
	})}
	routes := Routes(NewHandler(svc))

	rec, resp := postSync(t, routes, signed(t, "user-1", auth.RoleUser), SyncRequestDTO{Action: "pull"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ActionPull, resp.Action)
	assert.Contains(t, resp.Error, "google authorization failed")
	assert.Equal(t, "invalid_grant: Token has been expired or revoked.", resp.Detail)
	assert.Nil(t, resp.Summary)
}

func TestSync_OtherUsers(t *testing.T) {
	setupAuth(t)

	t.Run("RejectedForUsers", func(t *testing.T) {
		svc := &recordingService{}
		rec, resp := postSync(t, Routes(NewHandler(svc)), signed(t, "user-1", auth.RoleUser), SyncRequestDTO{UserID: "user-2"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, ErrForeignUser.Error(), resp.Error)
		assert.Empty(t, svc.calls)
	})

	t.Run("AllowedForServices", func(t *testing.T) {
		svc := &recordingService{}
		rec, resp := postSync(t, Routes(NewHandler(svc)), signed(t, "scheduler", auth.RoleService), SyncRequestDTO{UserID: "user-2", Action: "two_way"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, resp.Error)
		require.Len(t, svc.reqs, 1)
		assert.Equal(t, "user-2", svc.reqs[0].UserID)
		assert.Equal(t, []string{"two_way"}, svc.calls)
	})
}

func TestSync_RequiresAuthentication(t *testing.T) {
	setupAuth(t)
	svc := &recordingService{}

	rec, _ := postSync(t, Routes(NewHandler(svc)), "", SyncRequestDTO{Action: "push"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = postSync(t, Routes(NewHandler(svc)), signed(t, "user-1", auth.RoleWebhook), SyncRequestDTO{Action: "push"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.calls)
}

func TestSync_InvalidBody(t *testing.T) {
	setupAuth(t)
	svc := &recordingService{}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+signed(t, "user-1", auth.RoleUser))
	rec := httptest.NewRecorder()
	Routes(NewHandler(svc)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
	assert.Empty(t, svc.calls)
}

func TestRun_CollapsesConcurrentRequests(t *testing.T) {
	svc := &recordingService{release: make(chan struct{})}
	h := NewHandler(svc)

	var wg sync.WaitGroup
	results := make([]*SyncResponseDTO, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.run(context.Background(), ActionPush, SyncRequest{UserID: "user-1"})
		}(i)
	}

	assert.Eventually(t, func() bool { return svc.running.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(svc.release)
	wg.Wait()

	assert.Equal(t, int32(1), svc.running.Load())
	assert.Same(t, results[0], results[1])
}

func webhookRequest(channelToken, state string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	if channelToken != "" {
		req.Header.Set(headerChannelToken, channelToken)
	}
	req.Header.Set(headerChannelID, "chan-1")
	req.Header.Set(headerResourceState, state)
	return req
}

func TestWebhook(t *testing.T) {
	setupAuth(t)

	t.Run("SyncPingIsAcknowledged", func(t *testing.T) {
		svc := &recordingService{}
		rec := httptest.NewRecorder()
		Routes(NewHandler(svc)).ServeHTTP(rec, webhookRequest(signed(t, "user-1", auth.RoleWebhook), "sync"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, svc.calls)
	})

	t.Run("ChangeTriggersPull", func(t *testing.T) {
		svc := &recordingService{}
		rec := httptest.NewRecorder()
		Routes(NewHandler(svc)).ServeHTTP(rec, webhookRequest(signed(t, "user-1", auth.RoleWebhook), "exists"))
		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, svc.reqs, 1)
		assert.Equal(t, []string{"pull"}, svc.calls)
		assert.Equal(t, "user-1", svc.reqs[0].UserID)
	})

	t.Run("FailedPullStillAnswers200", func(t *testing.T) {
		svc := &recordingService{err: fail(StageListRemote, errBoom)}
		rec := httptest.NewRecorder()
		Routes(NewHandler(svc)).ServeHTTP(rec, webhookRequest(signed(t, "user-1", auth.RoleWebhook), "exists"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("RejectsOtherTokens", func(t *testing.T) {
		svc := &recordingService{}
		for _, tok := range []string{"", "garbage", signed(t, "user-1", auth.RoleUser)} {
			rec := httptest.NewRecorder()
			Routes(NewHandler(svc)).ServeHTTP(rec, webhookRequest(tok, "exists"))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		}
		assert.Empty(t, svc.calls)
	})
}
