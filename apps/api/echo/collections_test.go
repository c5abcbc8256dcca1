package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutordesk/core/questionbank"
)

type listResponse struct {
	Items []map[string]interface{} `json:"items"`
	Total int                      `json:"total"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
}

func Test_collectionApi_list(t *testing.T) {
	app := setup(t)
	token := getToken(t, jane)
	for _, title := range []string{"A", "B", "C"} {
		app.fake.Seed("courses", map[string]interface{}{"title": title, "educatorId": jane.ID})
	}
	app.fake.Seed("courses", map[string]interface{}{"title": "not mine", "educatorId": john.ID})

	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", path: "/v1/collections/courses", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Unknown collection", path: "/v1/collections/users", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "unknown collection"}),
		},
	})

	var list listResponse
	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/v1/collections/courses", token, nil, &list))
	assert.Equal(t, 3, list.Total)
	require.Len(t, list.Items, 3)
	assert.Equal(t, "A", list.Items[0]["title"])

	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/v1/collections/courses?page=2&limit=2", token, nil, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "C", list.Items[0]["title"])
	assert.Equal(t, 2, list.Page)
}

func Test_collectionApi_listFailure(t *testing.T) {
	app := setup(t)
	app.fake.Fail(http.MethodGet, "/webinars/educator/"+jane.ID, http.StatusInternalServerError, `{"message": "db down"}`, 10)

	var body struct {
		Errors []string `json:"errors"`
	}
	code := do(t, app, http.MethodGet, "/v1/collections/webinars", getToken(t, jane), nil, &body)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, []string{"db down"}, body.Errors)
}

func Test_collectionApi_listInvalidatedBySubmit(t *testing.T) {
	app := setup(t)
	token := getToken(t, jane)

	var list listResponse
	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/v1/collections/posts", token, nil, &list))
	assert.Empty(t, list.Items)

	state := openSession(t, app, "post", token, nil)
	base := "/v1/sessions/" + state.ID
	require.Equal(t, http.StatusOK, do(t, app, http.MethodPatch, base+"/fields", token, map[string]interface{}{"title": "Hello", "content": "Welcome to the new batch!"}, nil))
	require.Equal(t, http.StatusOK, do(t, app, http.MethodPost, base+"/submit", token, nil, nil))

	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/v1/collections/posts", token, nil, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Hello", list.Items[0]["title"])
}

func Test_collectionApi_delete(t *testing.T) {
	app := setup(t)
	token := getToken(t, jane)
	id := app.fake.Seed("webinars", map[string]interface{}{"title": "W", "educatorId": jane.ID})

	var list listResponse
	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/v1/collections/webinars", token, nil, &list))
	require.Len(t, list.Items, 1)

	runHTTPTests(t, app, []httpTest{
		{name: "bad id", method: http.MethodDelete, path: "/v1/collections/webinars/lol", token: token, wantCode: http.StatusNotFound},
		{name: "deleted", method: http.MethodDelete, path: "/v1/collections/webinars/" + id, token: token, wantCode: http.StatusNoContent},
		{name: "gone", method: http.MethodDelete, path: "/v1/collections/webinars/" + id, token: token, wantCode: http.StatusNotFound},
	})

	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/v1/collections/webinars", token, nil, &list))
	assert.Empty(t, list.Items)
}

func Test_collectionApi_questionBank(t *testing.T) {
	app := setup(t)
	token := getToken(t, jane)
	q1 := app.fake.Seed("questions", map[string]interface{}{
		"question": "What is inertia?", "subject": "physics", "topic": "Laws of motion",
		"difficulty": "easy", "type": "mcq", "exams": []interface{}{"JEE"}, "educatorId": jane.ID,
	})
	q2 := app.fake.Seed("questions", map[string]interface{}{
		"question": "Balance the equation", "subject": "chemistry", "topic": "Stoichiometry",
		"difficulty": "hard", "type": "subjective", "exams": []interface{}{"NEET"}, "educatorId": jane.ID,
	})

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all", "", []string{q1, q2}},
		{"search topic", "?search=MOTION", []string{q1}},
		{"subject", "?subject=chemistry", []string{q2}},
		{"difficulty all", "?difficulty=all", []string{q1, q2}},
		{"exam", "?exam=JEE&type=mcq", []string{q1}},
		{"nothing", "?search=lol", []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got []questionbank.Question
			require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/v1/question-bank"+tc.query, token, nil, &got))
			ids := make([]string, 0, len(got))
			for _, q := range got {
				ids = append(ids, q.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func Test_collectionApi_answer(t *testing.T) {
	app := setup(t)
	token := getToken(t, jane)
	id := app.fake.Seed("queries", map[string]interface{}{"question": "Is chapter 3 in the syllabus?", "status": "pending"})

	runHTTPTests(t, app, []httpTest{
		{
			name: "blank answer", method: http.MethodPost, path: "/v1/queries/" + id + "/answer", token: token,
			body: marchallObj(t, map[string]string{"answer": "   "}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"answer": "answer is required"}),
		},
		{
			name: "unknown query", method: http.MethodPost, path: "/v1/queries/ffffffffffffffffffffffff/answer", token: token,
			body: marchallObj(t, map[string]string{"answer": "Yes"}), wantCode: http.StatusNotFound,
		},
		{
			name: "answered", method: http.MethodPost, path: "/v1/queries/" + id + "/answer", token: token,
			body: marchallObj(t, map[string]string{"answer": "Yes, it is."}), wantCode: http.StatusOK,
		},
	})
	assert.Equal(t, "answered", app.fake.Entity("queries", id)["status"])
	assert.Equal(t, "Yes, it is.", app.fake.Entity("queries", id)["answer"])
}
