package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"petspa-text-bot/internal/cache"
	"petspa-text-bot/internal/config"
	"petspa-text-bot/internal/database"
	"petspa-text-bot/internal/flow"
	"petspa-text-bot/internal/script"
	"petspa-text-bot/internal/supabase"

	"github.com/allegro/bigcache/v3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	reply  string
	phrase string
	err    error
}

func (f *fakeAI) Answer(_ context.Context, _ []database.Turn, _ string) (string, error) {
	return f.reply, f.err
}

func (f *fakeAI) MascotPhrase(_ context.Context, _ string, _ []string) (string, error) {
	return f.phrase, f.err
}

func newTestRouter(t *testing.T, backendURL string, ai aiProvider) (*gin.Engine, *bigcache.BigCache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem, err := bigcache.NewBigCache(bigcache.DefaultConfig(time.Minute))
	require.NoError(t, err)

	cnf := &config.Conf{HistoryDepth: 6}

	app := gin.New()
	app.Use(func(c *gin.Context) {
		c.Set(KeyConfig, cnf)
		c.Set(KeyCache, mem)
		c.Set(KeyScript, script.Default())
		c.Set(KeySupabase, supabase.New(backendURL, "anon"))
		c.Set(KeyGemini, ai)
	})
	Routes(app)
	return app, mem
}

func doJSON(t *testing.T, app *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func decodeChat(t *testing.T, w *httptest.ResponseRecorder) chatResponse {
	t.Helper()
	var resp chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestChatLifecycle(t *testing.T) {
	app, _ := newTestRouter(t, "http://unused.invalid", &fakeAI{})

	// open: greeting plus the start menu
	w := doJSON(t, app, http.MethodPost, "/v1/chat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	opened := decodeChat(t, w)
	assert.NotEqual(t, uuid.Nil, opened.SessionID)
	assert.Equal(t, flow.NodeStart, opened.Node)
	require.Len(t, opened.Messages, 2)
	assert.NotEmpty(t, opened.Messages[1].Options)

	// pick an option by its label
	w = doJSON(t, app, http.MethodPost, "/v1/chat/"+opened.SessionID.String()+"/message",
		messageRequest{Text: "📍 Address & hours"})
	require.Equal(t, http.StatusOK, w.Code)
	moved := decodeChat(t, w)
	assert.Equal(t, flow.NodeContact, moved.Node)
	require.Len(t, moved.Messages, 2, "only the new turns come back")
	assert.Equal(t, flow.AuthorUser, moved.Messages[0].Author)
	assert.Equal(t, flow.AuthorBot, moved.Messages[1].Author)

	// the full transcript survives in the session cache
	w = doJSON(t, app, http.MethodGet, "/v1/chat/"+opened.SessionID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	full := decodeChat(t, w)
	assert.Len(t, full.Messages, 4)

	// close and forget
	w = doJSON(t, app, http.MethodDelete, "/v1/chat/"+opened.SessionID.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, app, http.MethodGet, "/v1/chat/"+opened.SessionID.String(), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageRepromptsOnUnknownText(t *testing.T) {
	app, _ := newTestRouter(t, "http://unused.invalid", &fakeAI{})

	opened := decodeChat(t, doJSON(t, app, http.MethodPost, "/v1/chat", nil))

	w := doJSON(t, app, http.MethodPost, "/v1/chat/"+opened.SessionID.String()+"/message",
		messageRequest{Text: "banana"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeChat(t, w)
	assert.Equal(t, flow.NodeStart, resp.Node)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, script.Default().ErrorMessages.CommandUnknown, resp.Messages[0].Text)
	assert.NotEmpty(t, resp.Messages[0].Options)
}

func TestMessageNumericSelection(t *testing.T) {
	ai := &fakeAI{reply: "Poodles need brushing."}
	app, _ := newTestRouter(t, "http://unused.invalid", ai)

	opened := decodeChat(t, doJSON(t, app, http.MethodPost, "/v1/chat", nil))

	// option 3 on the anonymous start menu is the AI fallback
	w := doJSON(t, app, http.MethodPost, "/v1/chat/"+opened.SessionID.String()+"/message",
		messageRequest{Text: "3"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeChat(t, w)
	assert.True(t, resp.Freeform)

	w = doJSON(t, app, http.MethodPost, "/v1/chat/"+opened.SessionID.String()+"/message",
		messageRequest{Text: "tell me about poodles"})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeChat(t, w)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "Poodles need brushing.", resp.Messages[1].Text)
}

func TestCancelWinsOverPendingCapture(t *testing.T) {
	app, mem := newTestRouter(t, "http://unused.invalid", &fakeAI{})
	sessionID := uuid.New()

	// a session parked on the date question: capture pending, escape
	// buttons offered under the same message
	st := flow.NewState()
	st.Node = flow.NodeScheduleDate
	st.Ctx = flow.Context{PetID: 7, PetName: "Rex", ServiceID: 3, ServiceName: "Bath", ServiceDuration: 60}
	st.Capture = &flow.CaptureSpec{Kind: flow.CaptureDateTime, Field: flow.FieldStartAt, Next: flow.NodeScheduleConfirm}
	st.PushBot("What date and time work best for you?", []flow.Option{
		{Label: "⬅️ Pick another service", Next: flow.NodeScheduleService},
		{Label: "❌ Cancel", Next: flow.NodeStart},
	})
	require.NoError(t, cache.SaveState(mem, sessionID, st))

	w := doJSON(t, app, http.MethodPost, "/v1/chat/"+sessionID.String()+"/message",
		messageRequest{Text: "❌ Cancel"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeChat(t, w)
	assert.Equal(t, flow.NodeStart, resp.Node)
	assert.Empty(t, resp.Capture, "the pending capture is gone after cancelling")
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "❌ Cancel", resp.Messages[0].Text)
	assert.NotEqual(t, script.Default().ErrorMessages.InvalidValue, resp.Messages[1].Text)
	assert.NotEmpty(t, resp.Messages[1].Options)
}

func TestSecondMessageWhileBusyGets409(t *testing.T) {
	app, _ := newTestRouter(t, "http://unused.invalid", &fakeAI{})

	opened := decodeChat(t, doJSON(t, app, http.MethodPost, "/v1/chat", nil))

	busySessions.Store(opened.SessionID, struct{}{})
	w := doJSON(t, app, http.MethodPost, "/v1/chat/"+opened.SessionID.String()+"/message",
		messageRequest{Text: "1"})
	require.Equal(t, http.StatusConflict, w.Code)

	// the guard is per session and released after the turn
	busySessions.Delete(opened.SessionID)
	w = doJSON(t, app, http.MethodPost, "/v1/chat/"+opened.SessionID.String()+"/message",
		messageRequest{Text: "📍 Address & hours"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, flow.NodeContact, decodeChat(t, w).Node)
}

func TestMessageUnknownSession(t *testing.T) {
	app, _ := newTestRouter(t, "http://unused.invalid", &fakeAI{})

	w := doJSON(t, app, http.MethodPost, "/v1/chat/"+uuid.NewString()+"/message",
		messageRequest{Text: "hello"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, app, http.MethodPost, "/v1/chat/not-a-uuid/message", messageRequest{Text: "hello"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListServicesProxiesBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/services", r.URL.Path)
		w.Write([]byte(`[{"id": 1, "name": "Bath", "price": 50, "duration_minutes": 60}]`))
	}))
	defer backend.Close()

	app, _ := newTestRouter(t, backend.URL, &fakeAI{})

	w := doJSON(t, app, http.MethodGet, "/v1/services", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var services []database.Service
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &services))
	require.Len(t, services, 1)
	assert.Equal(t, "Bath", services[0].Name)
}

func TestUpdateAppointmentRejectsUnknownStatus(t *testing.T) {
	app, _ := newTestRouter(t, "http://unused.invalid", &fakeAI{})

	req := httptest.NewRequest(http.MethodPatch, "/v1/appointments/5",
		bytes.NewBufferString(`{"status": "vanished"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer staff-token")

	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPetEndpointsRequireToken(t *testing.T) {
	app, _ := newTestRouter(t, "http://unused.invalid", &fakeAI{})

	w := doJSON(t, app, http.MethodGet, "/v1/pets?user_id="+uuid.NewString(), nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, app, http.MethodGet, "/v1/appointments", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMascotFallsBackWhenModelFails(t *testing.T) {
	app, _ := newTestRouter(t, "http://unused.invalid", &fakeAI{err: errors.New("quota exceeded")})

	w := doJSON(t, app, http.MethodGet, "/v1/mascot?name=Ana&pets=Rex,Mia", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, script.Default().AI.MascotFallback, resp["phrase"])
}
