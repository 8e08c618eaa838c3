package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-model/pkg/rest"
	"github.com/tendant/simple-model/pkg/simplemodel"
	"github.com/tendant/simple-model/pkg/simplemodel/driver/memory"
)

type Task struct {
	simplemodel.Model
	Title string `json:"title" form:"title"`
	Done  bool   `json:"done" form:"done"`
}

func (Task) EntityName() string { return "tasks" }

func (t *Task) WillCreate(ctx context.Context) error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

func newTaskRouter(t *testing.T) chi.Router {
	t.Helper()
	db, err := simplemodel.New(simplemodel.WithDriver(memory.New()))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Mount("/tasks", rest.NewResource[Task](db).Routes())
	return r
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createTask(t *testing.T, router http.Handler, title string) Task {
	t.Helper()
	w := postJSON(t, router, "/tasks", fmt.Sprintf(`{"title":%q}`, title))
	require.Equal(t, http.StatusCreated, w.Code)

	var task Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.NotEqual(t, uuid.Nil, task.ID)
	return task
}

func TestResourceCreate(t *testing.T) {
	router := newTaskRouter(t)

	task := createTask(t, router, "write tests")
	assert.Equal(t, "write tests", task.Title)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestResourceCreateFromForm(t *testing.T) {
	router := newTaskRouter(t)

	form := url.Values{"title": {"from form"}}
	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var task Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, "from form", task.Title)
}

func TestResourceCreateValidationFails(t *testing.T) {
	router := newTaskRouter(t)

	w := postJSON(t, router, "/tasks", `{"title":"  "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp rest.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "title is required")
}

func TestResourceCreateUnsupportedContentType(t *testing.T) {
	router := newTaskRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader("<task/>"))
	req.Header.Set("Content-Type", "application/xml")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestResourceGet(t *testing.T) {
	router := newTaskRouter(t)
	task := createTask(t, router, "fetch me")

	t.Run("existing", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/"+task.ID.String(), nil))
		require.Equal(t, http.StatusOK, w.Code)

		var got Task
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, task.ID, got.ID)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed identifier", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/not-a-uuid", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestResourceUpdate(t *testing.T) {
	router := newTaskRouter(t)
	task := createTask(t, router, "old title")

	body := bytes.NewReader([]byte(`{"title":"new title","done":true}`))
	req := httptest.NewRequest(http.MethodPut, "/tasks/"+task.ID.String(), body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "new title", got.Title)
	assert.True(t, got.Done)
}

func TestResourceDeleteAndRestore(t *testing.T) {
	router := newTaskRouter(t)
	task := createTask(t, router, "ephemeral")
	path := "/tasks/" + task.ID.String()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, path, nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path+"/restore", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResourceList(t *testing.T) {
	router := newTaskRouter(t)
	for i := 0; i < 5; i++ {
		createTask(t, router, fmt.Sprintf("task %d", i))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks?limit=2&offset=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp rest.ListResponse[Task]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, int64(5), resp.Total)
	assert.Equal(t, 2, resp.Limit)
	assert.Equal(t, 2, resp.Offset)
}

func TestResourceListIncludesDeletedOnRequest(t *testing.T) {
	router := newTaskRouter(t)
	keep := createTask(t, router, "keep")
	drop := createTask(t, router, "drop")
	_ = keep

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/tasks/"+drop.ID.String(), nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	var live rest.ListResponse[Task]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &live))
	assert.Equal(t, int64(1), live.Total)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks?with_deleted=true", nil))
	var all rest.ListResponse[Task]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Equal(t, int64(2), all.Total)
}

func TestResourceNotAcceptable(t *testing.T) {
	router := newTaskRouter(t)
	task := createTask(t, router, "negotiated")

	req := httptest.NewRequest(http.MethodGet, "/tasks/"+task.ID.String(), nil)
	req.Header.Set("Accept", "application/xml")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotAcceptable, w.Code)
}
