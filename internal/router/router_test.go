package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/formbuilder/internal/config"
	"github.com/stemsi/formbuilder/internal/handler"
	"github.com/stemsi/formbuilder/internal/model"
	"github.com/stemsi/formbuilder/internal/repository"
	"github.com/stemsi/formbuilder/internal/service"
	"github.com/stemsi/formbuilder/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

type formData struct {
	Questions model.Forest   `json:"questions"`
	Question  model.Question `json:"question"`
	Rows      []struct {
		Number string `json:"number"`
		Depth  int    `json:"depth"`
		ID     int64  `json:"id"`
		Text   string `json:"text"`
	} `json:"rows"`
}

func newTestRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *service.QuestionService) {
	t.Helper()
	validator.Setup()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := service.NewQuestionService(repository.NewBadgerKVRepository(db), "questions", zerolog.Nop())
	require.NoError(t, svc.Load(context.Background()))

	if cfg == nil {
		cfg = &config.Config{GinMode: gin.TestMode, StorageDriver: config.StorageBadger}
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := SetupRouter(ctx, &Handlers{
		Question: handler.NewQuestionHandler(svc),
		Page:     handler.NewPageHandler(svc, zerolog.Nop()),
		Drag:     handler.NewDragHandler(svc, zerolog.Nop(), nil),
		System:   handler.NewSystemHandler(svc, cfg),
	}, cfg, zerolog.Nop())
	return r, svc
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decodeForm(t *testing.T, env envelope) formData {
	t.Helper()
	var fd formData
	require.NoError(t, json.Unmarshal(env.Data, &fd))
	return fd
}

func path(format string, id int64) string {
	return strings.Replace(format, ":id", jsonID(id), 1)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestFormAPI_BuildSubmitFlow(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w, env := do(t, r, http.MethodPost, "/api/v1/form/questions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	q1 := decodeForm(t, env).Question

	w, _ = do(t, r, http.MethodPatch, path("/api/v1/form/questions/:id/text", q1.ID), `{"text":"Favorite color?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	_, env = do(t, r, http.MethodPost, "/api/v1/form/questions", "")
	q2 := decodeForm(t, env).Question
	w, _ = do(t, r, http.MethodPut, path("/api/v1/form/questions/:id", q2.ID), `{"text":"Is water wet?","type":"TrueFalse"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodPost, path("/api/v1/form/questions/:id/children", q2.ID), "")
	require.Equal(t, http.StatusCreated, w.Code)
	child := decodeForm(t, env).Question
	require.NotNil(t, child.ParentID)
	assert.Equal(t, q2.ID, *child.ParentID)

	w, env = do(t, r, http.MethodPatch, path("/api/v1/form/questions/:id/text", child.ID), `{"text":"Explain"}`)
	require.Equal(t, http.StatusOK, w.Code)

	fd := decodeForm(t, env)
	require.Len(t, fd.Rows, 3)
	assert.Equal(t, "Q1", fd.Rows[0].Number)
	assert.Equal(t, "Q2", fd.Rows[1].Number)
	assert.Equal(t, "Q2.1", fd.Rows[2].Number)
	assert.Equal(t, 1, fd.Rows[2].Depth)

	w, _ = do(t, r, http.MethodGet, "/api/v1/form/submission", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = do(t, r, http.MethodPost, "/api/v1/form/submit", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var sub struct {
		Summary string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	assert.Equal(t, "Q1: Favorite color? (ShortAnswer)\nQ2: Is water wet? (TrueFalse)\n  Q2.1: Explain (ShortAnswer)\n", sub.Summary)

	w, _ = do(t, r, http.MethodGet, "/api/v1/form/submission", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFormAPI_Errors(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	_, env := do(t, r, http.MethodPost, "/api/v1/form/questions", "")
	q := decodeForm(t, env).Question

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad id", http.MethodDelete, "/api/v1/form/questions/abc", "", http.StatusBadRequest, "INVALID_ID"},
		{"unknown id", http.MethodPatch, "/api/v1/form/questions/404/text", `{"text":"x"}`, http.StatusNotFound, "NOT_FOUND"},
		{"child of short answer", http.MethodPost, path("/api/v1/form/questions/:id/children", q.ID), "", http.StatusUnprocessableEntity, "NOT_TRUE_FALSE"},
		{"bad kind", http.MethodPatch, path("/api/v1/form/questions/:id/kind", q.ID), `{"type":"Essay"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"move out of range", http.MethodPost, "/api/v1/form/move", `{"from":0,"to":5}`, http.StatusUnprocessableEntity, "INDEX_OUT_OF_RANGE"},
		{"move missing field", http.MethodPost, "/api/v1/form/move", `{"from":0}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"import duplicate ids", http.MethodPut, "/api/v1/form", `{"questions":[{"id":1,"type":"ShortAnswer"},{"id":1,"type":"ShortAnswer"}]}`, http.StatusBadRequest, "INVALID_PAYLOAD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestFormAPI_MoveDeleteReset(t *testing.T) {
	r, svc := newTestRouter(t, nil)
	for i := 0; i < 3; i++ {
		do(t, r, http.MethodPost, "/api/v1/form/questions", "")
	}
	before := svc.Questions()

	w, env := do(t, r, http.MethodPost, "/api/v1/form/move", `{"from":2,"to":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	moved := decodeForm(t, env).Questions
	assert.Equal(t, []int64{before[2].ID, before[0].ID, before[1].ID}, []int64{moved[0].ID, moved[1].ID, moved[2].ID})

	w, env = do(t, r, http.MethodDelete, path("/api/v1/form/questions/:id", before[0].ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeForm(t, env).Questions, 2)

	w, env = do(t, r, http.MethodDelete, "/api/v1/form", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeForm(t, env).Questions)
}

func TestFormAPI_Import(t *testing.T) {
	r, svc := newTestRouter(t, nil)

	body := `{"questions":[{"id":10,"text":"Is it on?","type":"True/False","children":[{"id":11,"text":"Why?","parentId":10}]}]}`
	w, _ := do(t, r, http.MethodPut, "/api/v1/form", body)
	require.Equal(t, http.StatusOK, w.Code)

	got := svc.Questions()
	require.Len(t, got, 1)
	assert.Equal(t, model.QuestionKindTrueFalse, got[0].Kind)
	assert.Equal(t, model.QuestionKindShortAnswer, got[0].Children[0].Kind)
	assert.NotNil(t, got[0].Children[0].Children)

	w, env := do(t, r, http.MethodPut, "/api/v1/form", `{"questions":[{"id":5,"text":"Stray","type":"ShortAnswer","children":[],"parentId":77}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_PAYLOAD", env.Error.Code)
	assert.Len(t, svc.Questions(), 1, "rejected import leaves the form as it was")
}

func TestEditorPage(t *testing.T) {
	r, svc := newTestRouter(t, nil)

	post := func(p string, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, p, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("/ui/questions", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	id := svc.Questions()[0].ID
	w = post(path("/ui/questions/:id", id), url.Values{"text": {"Is water wet?"}, "type": {"TrueFalse"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	post(path("/ui/questions/:id/children", id), url.Values{"text": {"Is water wet?"}, "type": {"TrueFalse"}})
	require.Len(t, svc.Questions()[0].Children, 1)

	post("/ui/submit", nil)

	w, _ = do(t, r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	page := w.Body.String()
	assert.Contains(t, page, "Dynamic Form with Nested Questions")
	assert.Contains(t, page, "Q1.1")
	assert.Contains(t, page, "Submitted Questions")

	post(path("/ui/questions/:id/delete", id), nil)
	assert.Empty(t, svc.Questions())
}

func TestEditorPage_LiveEditsSurviveOtherActions(t *testing.T) {
	r, svc := newTestRouter(t, nil)

	post := func(p string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, p, nil)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusSeeOther, post("/ui/questions").Code)
	id := svc.Questions()[0].ID

	// The page commits typing and type changes through the split endpoints.
	w, _ := do(t, r, http.MethodPatch, path("/api/v1/form/questions/:id/text", id), `{"text":"Favorite color?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, http.StatusSeeOther, post("/ui/questions").Code)
	got := svc.Questions()
	require.Len(t, got, 2)
	assert.Equal(t, "Favorite color?", got[0].Text)

	w, _ = do(t, r, http.MethodPatch, path("/api/v1/form/questions/:id/kind", got[1].ID), `{"type":"TrueFalse"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusSeeOther, post("/ui/submit").Code)
	sub := svc.Submitted()
	require.NotNil(t, sub)
	assert.Equal(t, "Favorite color?", sub.Questions[0].Text)
	assert.Equal(t, model.QuestionKindTrueFalse, sub.Questions[1].Kind)

	w, _ = do(t, r, http.MethodGet, "/", "")
	page := w.Body.String()
	assert.Contains(t, page, `addEventListener("input"`)
	assert.Contains(t, page, `addEventListener("change"`)
	assert.Contains(t, page, `value="Favorite color?"`)
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w, _ := do(t, r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "badger", health["storage"])

	do(t, r, http.MethodPost, "/api/v1/form/questions", "")
	w, _ = do(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "form_mutations_total")
}

func TestRateLimitedAPI(t *testing.T) {
	cfg := &config.Config{GinMode: gin.TestMode, StorageDriver: config.StorageBadger, RateLimitPerMinute: 1}
	r, _ := newTestRouter(t, cfg)

	w, _ := do(t, r, http.MethodGet, "/api/v1/form", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, env := do(t, r, http.MethodGet, "/api/v1/form", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", env.Error.Code)

	w, _ = do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code, "ops endpoints are not limited")
}

func TestDragSocket(t *testing.T) {
	r, svc := newTestRouter(t, nil)
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		q, _ := svc.AddQuestion(ctx)
		ids = append(ids, q.ID)
	}

	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/v1/form/drag", nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(action string, index *int) map[string]interface{} {
		t.Helper()
		msg := map[string]interface{}{"action": action}
		if index != nil {
			msg["index"] = *index
		}
		require.NoError(t, conn.WriteJSON(msg))
		var ev map[string]interface{}
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}
	idx := func(i int) *int { return &i }

	assert.Equal(t, "pong", send("ping", nil)["event"])
	assert.Equal(t, "error", send("hover", idx(1))["event"], "hover before grab")
	assert.Equal(t, "error", send("drag_start", idx(99))["event"], "grab past the last question")
	assert.Equal(t, "error", send("hover", idx(1))["event"], "failed grab stays idle")

	ev := send("drag_start", idx(0))
	assert.Equal(t, "dragging", ev["event"])

	ev = send("hover", idx(1))
	assert.Equal(t, "moved", ev["event"])
	assert.Equal(t, float64(0), ev["from"])
	assert.Equal(t, float64(1), ev["to"])
	got := svc.Questions()
	assert.Equal(t, []int64{ids[1], ids[0], ids[2]}, []int64{got[0].ID, got[1].ID, got[2].ID})

	ev = send("hover", idx(2))
	assert.Equal(t, "moved", ev["event"])

	assert.Equal(t, "error", send("hover", idx(9))["event"])
	assert.Equal(t, "idle", send("drop", nil)["event"])

	got = svc.Questions()
	assert.Equal(t, []int64{ids[1], ids[2], ids[0]}, []int64{got[0].ID, got[1].ID, got[2].ID})

	assert.Equal(t, "error", send("shuffle", nil)["event"])
}
