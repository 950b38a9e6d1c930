package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvjob-dk/cvjob-backend/internal/auth"
	"github.com/cvjob-dk/cvjob-backend/internal/common"
	"github.com/cvjob-dk/cvjob-backend/internal/dtos"
	"github.com/cvjob-dk/cvjob-backend/internal/models"
	"github.com/cvjob-dk/cvjob-backend/internal/workflow"
)

type memJobStore struct {
	jobs   map[uint]*models.JobPosting
	nextID uint
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: map[uint]*models.JobPosting{}, nextID: 1}
}

func (s *memJobStore) save(userID uint, form dtos.JobForm, draft bool) *models.JobPosting {
	id := form.ID
	if id == 0 {
		id = s.nextID
		s.nextID++
	}
	job := &models.JobPosting{UserID: userID, Title: form.Title, Company: form.Company, Description: form.Description, Draft: draft}
	job.ID = id
	s.jobs[id] = job
	return job
}

func (s *memJobStore) CreateOrUpdate(ctx context.Context, userID uint, form dtos.JobForm) (*models.JobPosting, error) {
	return s.save(userID, form, false), nil
}

func (s *memJobStore) SaveDraft(ctx context.Context, userID uint, form dtos.JobForm) (*models.JobPosting, error) {
	return s.save(userID, form, true), nil
}

func (s *memJobStore) GetByID(ctx context.Context, userID, jobID uint) (*models.JobPosting, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return job, nil
}

type memLetterStore struct {
	letters map[uint]*models.CoverLetter
	nextID  uint
}

func newMemLetterStore() *memLetterStore {
	return &memLetterStore{letters: map[uint]*models.CoverLetter{}, nextID: 1}
}

func (s *memLetterStore) Insert(ctx context.Context, userID, jobID uint, content, locale string) (*models.CoverLetter, error) {
	letter := &models.CoverLetter{UserID: userID, JobPostingID: jobID, Content: content, Locale: locale}
	letter.ID = s.nextID
	s.nextID++
	s.letters[letter.ID] = letter
	return letter, nil
}

func (s *memLetterStore) Update(ctx context.Context, userID, letterID uint, content string) (*models.CoverLetter, error) {
	letter := s.letters[letterID]
	letter.Content = content
	return letter, nil
}

func (s *memLetterStore) GetByID(ctx context.Context, userID, letterID uint) (*models.CoverLetter, error) {
	return s.letters[letterID], nil
}

type stubGenerator struct {
	block chan struct{}
}

func (g *stubGenerator) Generate(ctx context.Context, req workflow.GenerationRequest) (string, error) {
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "Kære " + req.Job.Company + "...", nil
}

func testUser() models.User {
	u := models.User{Email: "test@example.dk"}
	u.ID = 7
	return u
}

// newTestRouter wires the session routes behind a middleware that injects the
// given user, standing in for the bearer-token middleware.
func newTestRouter(t *testing.T, gen workflow.Generator, user models.User) (*gin.Engine, *workflow.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := workflow.NewManager(func(u models.User) *workflow.Orchestrator {
		return workflow.NewOrchestrator(u, newMemJobStore(), newMemLetterStore(), gen, nil, nil, workflow.Options{})
	}, nil)
	t.Cleanup(manager.CloseAll)

	h := NewSessionHandler(manager)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		auth.SetCurrentUser(c, user)
		c.Next()
	})
	r.POST("/sessions", h.Open)
	r.DELETE("/sessions/:id", h.Close)
	r.GET("/sessions/:id/status", h.Status)
	r.POST("/sessions/:id/generate", h.Generate)
	r.POST("/sessions/:id/cancel", h.Cancel)
	r.POST("/sessions/:id/reset-error", h.ResetError)
	r.POST("/sessions/:id/draft", h.SaveDraft)
	r.PUT("/sessions/:id/letter", h.EditLetter)
	return r, manager
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func openSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var out struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.SessionID)
	return out.SessionID
}

var generateBody = dtos.GenerateRequest{
	Job: dtos.JobForm{
		Title:       "Udvikler",
		Company:     "Acme",
		Description: strings.Repeat("Acme søger en dygtig udvikler til vores team. ", 3),
	},
	Locale: "da",
}

func TestGenerateFlow(t *testing.T) {
	r, _ := newTestRouter(t, &stubGenerator{}, testUser())
	id := openSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/sessions/"+id+"/generate", generateBody)
	require.Equal(t, http.StatusAccepted, w.Code)

	var status workflow.Status
	require.Eventually(t, func() bool {
		w := doJSON(t, r, http.MethodGet, "/sessions/"+id+"/status", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		return status.State == workflow.StateIdle && status.GeneratedLetter != nil
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 2, status.Step)
	assert.Equal(t, "Kære Acme...", status.GeneratedLetter.Content)
	assert.Nil(t, status.Error)
}

func TestGenerateRejectsInvalidForm(t *testing.T) {
	r, _ := newTestRouter(t, &stubGenerator{}, testUser())
	id := openSession(t, r)

	body := generateBody
	body.Job.Description = strings.Repeat("x", 100) // passes binding
	body.Job.Title = ""
	w := doJSON(t, r, http.MethodPost, "/sessions/"+id+"/generate", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateConflictWhileBusy(t *testing.T) {
	gen := &stubGenerator{block: make(chan struct{})}
	r, manager := newTestRouter(t, gen, testUser())
	id := openSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/sessions/"+id+"/generate", generateBody)
	require.Equal(t, http.StatusAccepted, w.Code)

	orch, ok := manager.Get(id)
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return orch.State() == workflow.StateGenerating
	}, time.Second, time.Millisecond)

	w = doJSON(t, r, http.MethodPost, "/sessions/"+id+"/generate", generateBody)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(gen.block)
}

func TestStatusUnknownSession(t *testing.T) {
	r, _ := newTestRouter(t, &stubGenerator{}, testUser())
	w := doJSON(t, r, http.MethodGet, "/sessions/no-such/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionOwnership(t *testing.T) {
	gen := &stubGenerator{}
	r, manager := newTestRouter(t, gen, testUser())
	id := openSession(t, r)

	// Same manager, different authenticated user: the session must be
	// invisible to them.
	other := models.User{Email: "other@example.dk"}
	other.ID = 99
	intruder := gin.New()
	intruder.Use(func(c *gin.Context) {
		auth.SetCurrentUser(c, other)
		c.Next()
	})
	h := NewSessionHandler(manager)
	intruder.GET("/sessions/:id/status", h.Status)

	w := doJSON(t, intruder, http.MethodGet, "/sessions/"+id+"/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCloseSession(t *testing.T) {
	r, manager := newTestRouter(t, &stubGenerator{}, testUser())
	id := openSession(t, r)

	w := doJSON(t, r, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, ok := manager.Get(id)
	assert.False(t, ok)

	w = doJSON(t, r, http.MethodGet, "/sessions/"+id+"/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveDraftAllowsPartialForm(t *testing.T) {
	r, _ := newTestRouter(t, &stubGenerator{}, testUser())
	id := openSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/sessions/"+id+"/draft", dtos.DraftForm{
		Title:   "Udvikler",
		Company: "Acme",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var job models.JobPosting
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.True(t, job.Draft)
}

func TestSaveDraftRequiresTitleAndCompany(t *testing.T) {
	r, _ := newTestRouter(t, &stubGenerator{}, testUser())
	id := openSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/sessions/"+id+"/draft", dtos.DraftForm{Company: "Acme"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEditLetterWithoutLetter(t *testing.T) {
	r, _ := newTestRouter(t, &stubGenerator{}, testUser())
	id := openSession(t, r)

	w := doJSON(t, r, http.MethodPut, "/sessions/"+id+"/letter", dtos.LetterEditRequest{Content: "ny tekst"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetErrorEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, &stubGenerator{}, testUser())
	id := openSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/sessions/"+id+"/reset-error", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
