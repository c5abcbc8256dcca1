package backend

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutordesk/core/wizard"
	"github.com/trezcool/tutordesk/tests"
)

func setup(t *testing.T) (*Client, *testutil.FakeBackend) {
	fake := testutil.NewFakeBackend(t)
	return NewClient(fake.Config(), testutil.Logger()), fake
}

func TestClient_Save(t *testing.T) {
	client, fake := setup(t)
	ctx := context.Background()

	created, err := client.Save(ctx, "courses", "", map[string]interface{}{"title": "Algebra", "educatorId": "e1"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID())
	assert.Equal(t, "Algebra", created["title"])

	updated, err := client.Save(ctx, "courses", created.ID(), map[string]interface{}{"title": "Algebra II"})
	require.NoError(t, err)
	assert.Equal(t, created.ID(), updated.ID())
	assert.Equal(t, "Algebra II", fake.Entity("courses", created.ID())["title"])

	reqs := fake.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/courses", reqs[0].Path)
	assert.Equal(t, "Bearer service-token", reqs[0].Auth)
	assert.Equal(t, http.MethodPut, reqs[1].Method)
}

func TestClient_Save_forwardsEducatorToken(t *testing.T) {
	client, fake := setup(t)
	_, err := client.Save(WithToken(context.Background(), "educator-jwt"), "posts", "", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer educator-jwt", fake.Requests()[0].Auth)
}

func TestClient_Save_errors(t *testing.T) {
	client, fake := setup(t)
	fake.Fail(http.MethodPost, "/courses", http.StatusUnprocessableEntity,
		`{"errors": [{"msg": "Title already exists"}, {"msg": "Fee is too high"}]}`, 1)

	_, err := client.Save(context.Background(), "courses", "", map[string]interface{}{"title": "A"})
	require.Error(t, err)
	assert.Equal(t, []string{"Title already exists", "Fee is too high"}, wizard.FailureMessages(err, "Failed to create course"))
}

func TestClient_writesAreNotRetried(t *testing.T) {
	client, fake := setup(t)
	fake.Fail(http.MethodPost, "/courses", http.StatusServiceUnavailable, `{"message": "down"}`, 1)

	_, err := client.Save(context.Background(), "courses", "", map[string]interface{}{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, 1, fake.Count(http.MethodPost, "/courses"))
}

func TestClient_readsAreRetried(t *testing.T) {
	client, fake := setup(t)
	id := fake.Seed("courses", map[string]interface{}{"title": "A"})
	fake.Fail(http.MethodGet, "/courses/"+id, http.StatusBadGateway, `{}`, 2)

	entity, err := client.Get(context.Background(), "courses", id)
	require.NoError(t, err)
	assert.Equal(t, "A", entity["title"])
	assert.Equal(t, 3, fake.Count(http.MethodGet, "/courses/"))

	fake.Fail(http.MethodGet, "/courses/"+id, http.StatusNotFound, `{"message": "Not found"}`, 1)
	_, err = client.Get(context.Background(), "courses", id)
	assert.Error(t, err)
	assert.Equal(t, 4, fake.Count(http.MethodGet, "/courses/"), "4xx are not retried")
}

func TestClient_List(t *testing.T) {
	for _, shape := range []string{"bare", "data", "entities", "plural"} {
		t.Run(shape, func(t *testing.T) {
			client, fake := setup(t)
			fake.ListShape = shape
			fake.Seed("courses", map[string]interface{}{"title": "A", "educatorId": "e1"})
			fake.Seed("courses", map[string]interface{}{"title": "B", "educatorId": "e1"})
			fake.Seed("courses", map[string]interface{}{"title": "C", "educatorId": "e2"})

			list, err := client.List(context.Background(), "courses", "e1", 1, 10)
			require.NoError(t, err)
			require.Len(t, list.Items, 2)
			assert.Equal(t, "A", list.Items[0]["title"])
			assert.Equal(t, 1, list.Page)
			assert.Equal(t, 10, list.Limit)
		})
	}
}

func TestClient_List_cache(t *testing.T) {
	client, fake := setup(t)
	fake.Seed("courses", map[string]interface{}{"title": "A", "educatorId": "e1"})
	ctx := context.Background()

	_, err := client.List(ctx, "courses", "e1", 1, 10)
	require.NoError(t, err)
	_, err = client.List(ctx, "courses", "e1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Count(http.MethodGet, "/courses/educator/e1"), "second page read is cached")

	fake.Seed("courses", map[string]interface{}{"title": "B", "educatorId": "e1"})
	client.InvalidateList("courses", "e1")
	list, err := client.List(ctx, "courses", "e1", 1, 10)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 2, fake.Count(http.MethodGet, "/courses/educator/e1"))
}

func TestClient_Delete(t *testing.T) {
	client, fake := setup(t)
	id := fake.Seed("posts", map[string]interface{}{"title": "A"})

	require.NoError(t, client.Delete(context.Background(), "posts", id))
	assert.Nil(t, fake.Entity("posts", id))

	err := client.Delete(context.Background(), "posts", id)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClient_uploads(t *testing.T) {
	client, fake := setup(t)
	ctx := context.Background()

	url, err := client.UploadImage(ctx, &wizard.File{Name: "cover.png", ContentType: "image/png", Data: []byte("png")}, "courses")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/courses/cover.png", url)

	url, err = client.UploadPDF(ctx, &wizard.File{Name: "notes.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/pdf/notes.pdf", url)

	url, err = client.UploadIntroVideo(ctx, "courses", "c1", &wizard.File{Name: "intro.mp4", Data: []byte("mp4")})
	require.NoError(t, err)
	assert.Equal(t, "https://player.test/c1", url)

	reqs := fake.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, map[string]string{"image": "cover.png"}, reqs[0].Files)
	assert.Equal(t, "courses", reqs[0].Form["folder"])
	assert.Equal(t, map[string]string{"pdf": "notes.pdf"}, reqs[1].Files)
	assert.Equal(t, "/courses/c1/intro-video", reqs[2].Path)
	assert.Equal(t, map[string]string{"video": "intro.mp4"}, reqs[2].Files)

	fake.Fail(http.MethodPost, "/upload/image", http.StatusOK, `{"success": false, "message": "Image too large"}`, 1)
	_, err = client.UploadImage(ctx, &wizard.File{Name: "big.png"}, "courses")
	assert.Equal(t, []string{"Image too large"}, wizard.FailureMessages(err, "Failed to upload image"))
}

func TestClient_AnswerQuery(t *testing.T) {
	client, fake := setup(t)
	id := fake.Seed("queries", map[string]interface{}{"question": "Why?", "status": "pending"})

	entity, err := client.AnswerQuery(context.Background(), id, "Because.")
	require.NoError(t, err)
	assert.Equal(t, "answered", entity["status"])
	assert.Equal(t, "Because.", fake.Entity("queries", id)["answer"])
}

func TestClient_circuitBreaker(t *testing.T) {
	fake := testutil.NewFakeBackend(t)
	conf := fake.Config()
	conf.RetryMax = 0
	conf.BreakerThreshold = 2
	conf.BreakerTimeout = time.Hour
	client := NewClient(conf, testutil.Logger())
	fake.Fail(http.MethodGet, "/posts/x", http.StatusInternalServerError, `{}`, 10)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.Get(ctx, "posts", "x")
		require.Error(t, err)
	}
	assert.Equal(t, "open", client.CircuitState())

	_, err := client.Get(ctx, "posts", "x")
	var circuitErr *CircuitOpenError
	assert.True(t, errors.As(err, &circuitErr))
	assert.Equal(t, 2, fake.Count(http.MethodGet, "/posts/x"), "no call while the circuit is open")
}
