package echoapi_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/tutordesk/apps/api/echo"
	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/forms"
	"github.com/trezcool/tutordesk/core/wizard"
	"github.com/trezcool/tutordesk/services/backend"
	"github.com/trezcool/tutordesk/services/media"
	"github.com/trezcool/tutordesk/services/notify"
	"github.com/trezcool/tutordesk/storage/inmem"
	"github.com/trezcool/tutordesk/tests"
)

var (
	conf = &core.Config{
		AppName:   "Tutordesk",
		TestMode:  true,
		SecretKey: "test-secret",
		Server:    core.ServerConfig{DisableReqLogs: true},
		Wizard:    core.WizardConfig{ImageMaxWidth: 64, ImageMaxHeight: 64, MaxUploadSize: 1 << 20},
	}

	jane    = educator.Educator{ID: "5f1d7c3e2a9b4c0012345678", Name: "Jane", Email: "jane@test.com", Roles: []string{educator.RoleEducator}}
	john    = educator.Educator{ID: "5f1d7c3e2a9b4c0087654321", Name: "John", Roles: []string{educator.RoleEducatorMentor}}
	student = educator.Educator{ID: "5f1d7c3e2a9b4c00aaaaaaaa", Name: "Kid", Roles: []string{educator.RoleStudent}}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

type testApp struct {
	Server
	fake *testutil.FakeBackend
	ctrl *wizard.Controller
	hub  *notifysvc.Hub
}

func setup(t *testing.T) *testApp {
	fake := testutil.NewFakeBackend(t)
	logger := testutil.Logger()
	client := backend.NewClient(fake.Config(), logger)

	validate, translator := core.NewValidator()
	hub := notifysvc.NewHub(logger)
	ctrl := wizard.NewController(
		wizard.Options{
			Backend:   client,
			Store:     inmem.NewSessionStore(time.Hour),
			Validator: wizard.NewValidator(validate, translator),
			Notifier:  hub,
			Logger:    logger,
			Preparer:  mediasvc.NewPreparer(conf.Wizard),
			Persisted: func(resource string, owner educator.Educator, _ wizard.Entity) {
				client.InvalidateList(resource, owner.ID)
			},
		},
		forms.All()...,
	)
	t.Cleanup(ctrl.Wait)

	srv := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Controller: ctrl,
		Backend:    client,
		Hub:        hub,
		Validate:   validate,
		Translator: translator,
	})
	return &testApp{Server: srv, fake: fake, ctrl: ctrl, hub: hub}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest posts data as the multipart `file` field.
func newUploadRequest(t *testing.T, path, token, filename string, data []byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, edu educator.Educator) string {
	token, err := GenerateToken(GetEducatorClaims(edu, conf, time.Hour), conf.SecretKey)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			method := tc.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tc.path, tc.token, tc.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tc, rec)
		})
	}
}

// do sends a JSON request and decodes the JSON answer into out (when not nil).
func do(t *testing.T, app http.Handler, method, path, token string, body interface{}, out interface{}) int {
	var data []byte
	if body != nil {
		data = marchallObj(t, body)
	}
	req, rec := newAuthRequest(method, path, token, data)
	app.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func pngBytes(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
