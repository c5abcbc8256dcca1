package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	tests := []struct {
		resource, singular, plural string
	}{
		{"courses", "course", "courses"},
		{"live-tests", "liveTest", "liveTests"},
		{"test-series", "testSeries", "testSeries"},
		{"study-groups", "studyGroup", "studyGroups"},
	}
	for _, tt := range tests {
		singular, plural := Names(tt.resource)
		assert.Equal(t, tt.singular, singular, tt.resource)
		assert.Equal(t, tt.plural, plural, tt.resource)
	}
}

func TestParseEntity(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "data", body: `{"success": true, "data": {"_id": "c1", "title": "A"}}`},
		{name: "entity", body: `{"entity": {"_id": "c1", "title": "A"}}`},
		{name: "singular", body: `{"message": "created", "course": {"_id": "c1", "title": "A"}}`},
		{name: "bare", body: `{"_id": "c1", "title": "A"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity, err := ParseEntity([]byte(tt.body), "courses")
			require.NoError(t, err)
			assert.Equal(t, "c1", entity.ID())
			assert.Equal(t, "A", entity["title"])
		})
	}

	_, err := ParseEntity([]byte(`[1, 2]`), "courses")
	assert.Error(t, err)
	_, err = ParseEntity([]byte(`{oops`), "courses")
	assert.Error(t, err)
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantIDs   []string
		wantTotal int
	}{
		{name: "bare", body: `[{"_id": "1"}, {"_id": "2"}]`, wantIDs: []string{"1", "2"}, wantTotal: 2},
		{name: "data", body: `{"data": [{"_id": "1"}], "total": 7}`, wantIDs: []string{"1"}, wantTotal: 7},
		{name: "entities", body: `{"entities": [{"_id": "1"}, {"_id": "2"}]}`, wantIDs: []string{"1", "2"}, wantTotal: 2},
		{name: "plural", body: `{"success": true, "courses": [{"_id": "3"}], "pagination": {"total": 12}}`, wantIDs: []string{"3"}, wantTotal: 12},
		{name: "nested plural", body: `{"data": {"courses": [{"_id": "4"}], "total": 9}}`, wantIDs: []string{"4"}, wantTotal: 9},
		{name: "empty body", body: ``, wantIDs: []string{}, wantTotal: 0},
		{name: "skips non objects", body: `[{"_id": "1"}, "x", 3]`, wantIDs: []string{"1"}, wantTotal: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := ParseList([]byte(tt.body), "courses")
			require.NoError(t, err)
			ids := make([]string, 0, len(list.Items))
			for _, e := range list.Items {
				ids = append(ids, e.ID())
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantTotal, list.Total)
		})
	}

	_, err := ParseList([]byte(`{"message": "ok"}`), "courses")
	assert.Error(t, err)
}

func TestParseUploads(t *testing.T) {
	url, err := parseImageUpload([]byte(`{"success": true, "imageUrl": "https://cdn/a.png"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.png", url)

	_, err = parseImageUpload([]byte(`{"success": false, "message": "Unsupported format"}`))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"Unsupported format"}, apiErr.UserMessages())

	for _, body := range []string{`{"fileUrl": "https://cdn/a.pdf"}`, `{"url": "https://cdn/a.pdf", "publicId": "x"}`} {
		url, err = parsePDFUpload([]byte(body))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/a.pdf", url)
	}

	for _, body := range []string{`{"data": {"introVideo": "https://v/1"}}`, `{"data": {"embedUrl": "https://v/1"}}`} {
		url, err = parseVideoUpload([]byte(body))
		require.NoError(t, err)
		assert.Equal(t, "https://v/1", url)
	}
}

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "message", body: `{"message": "Title already exists"}`, want: []string{"Title already exists"}},
		{name: "string errors", body: `{"message": "Validation failed", "errors": ["Title is required", "Fee is invalid"]}`, want: []string{"Title is required", "Fee is invalid"}},
		{name: "object errors", body: `{"errors": [{"msg": "Title is required", "param": "title"}, {"message": "Fee is invalid"}]}`, want: []string{"Title is required", "Fee is invalid"}},
		{name: "error field", body: `{"error": "Unauthorized"}`, want: []string{"Unauthorized"}},
		{name: "not json", body: `<html>Bad gateway</html>`, want: []string{"<html>Bad gateway</html>"}},
		{name: "empty", body: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := decodeError("create courses", 400, []byte(tt.body))
			assert.Equal(t, tt.want, apiErr.UserMessages())
			assert.Equal(t, 400, apiErr.Status)
		})
	}
}
