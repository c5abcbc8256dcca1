// Package backend is the client of the tutoring platform REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/wizard"
)

const maxResponseSize = 10 << 20

type tokenKey struct{}

// WithToken makes the calls made with ctx authenticate as the educator holding token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// Client calls the backend. Reads are retried with backoff; writes are never retried
// since the backend has no idempotency keys. All calls share a rate limiter and a circuit breaker.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	retry   RetryConfig
	breaker *breaker
	lists   *cache.Cache
	listTTL time.Duration // 0 disables list caching
	logger  core.Logger
}

var _ wizard.Backend = (*Client)(nil)

func NewClient(conf core.BackendConfig, logger core.Logger) *Client {
	limit := rate.Inf
	if conf.RateLimit > 0 {
		limit = rate.Limit(conf.RateLimit)
	}
	burst := conf.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		token:   conf.Token,
		http:    &http.Client{Timeout: conf.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		retry: RetryConfig{
			MaxRetries: conf.RetryMax,
			BaseDelay:  conf.RetryBaseDelay,
			MaxDelay:   conf.RetryMaxDelay,
			Multiplier: 2,
		},
		breaker: newBreaker(conf.BreakerThreshold, conf.BreakerTimeout, logger),
		lists:   cache.New(conf.ListCacheTTL, time.Minute),
		listTTL: conf.ListCacheTTL,
		logger:  logger,
	}
}

// CircuitState reports the breaker state, for health checks.
func (c *Client) CircuitState() string { return c.breaker.State() }

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	var out []byte
	attempt := func(ctx context.Context) error {
		if !c.breaker.allow() {
			return &CircuitOpenError{}
		}
		body, err := c.send(ctx, req)
		c.breaker.record(err)
		out = body
		return err
	}
	if req.method != http.MethodGet {
		err := attempt(ctx)
		return out, err
	}
	err := withRetry(ctx, req.op, c.retry, c.logger, attempt)
	return out, err
}

func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "waiting for rate limiter")
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	token := c.token
	if t, ok := ctx.Value(tokenKey{}).(string); ok && t != "" {
		token = t
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, req.op)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(req.op, resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encoding payload")
	}
	return c.do(ctx, request{op: op, method: method, path: path, body: body, contentType: "application/json"})
}

func entityPath(resource, id string) string {
	return "/" + resource + "/" + url.PathEscape(id)
}

// Save creates the entity (POST) when id is empty, updates it (PUT) otherwise.
func (c *Client) Save(ctx context.Context, resource, id string, payload map[string]interface{}) (wizard.Entity, error) {
	method, path, op := http.MethodPost, "/"+resource, "create "+resource
	if id != "" {
		method, path, op = http.MethodPut, entityPath(resource, id), "update "+resource
	}
	data, err := c.sendJSON(ctx, op, method, path, payload)
	if err != nil {
		return nil, err
	}
	entity, err := ParseEntity(data, resource)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	return entity, nil
}

func (c *Client) Get(ctx context.Context, resource, id string) (wizard.Entity, error) {
	data, err := c.do(ctx, request{op: "get " + resource, method: http.MethodGet, path: entityPath(resource, id)})
	if err != nil {
		return nil, err
	}
	return ParseEntity(data, resource)
}

func (c *Client) Delete(ctx context.Context, resource, id string) error {
	_, err := c.do(ctx, request{op: "delete " + resource, method: http.MethodDelete, path: entityPath(resource, id)})
	return err
}

func listKey(resource, owner string) string {
	return resource + "|" + owner + "|"
}

// List fetches a page of the owner's entities. Pages are cached until InvalidateList.
func (c *Client) List(ctx context.Context, resource, owner string, page, limit int) (List, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	key := listKey(resource, owner) + strconv.Itoa(page) + "|" + strconv.Itoa(limit)
	if v, found := c.lists.Get(key); found {
		return v.(List), nil
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	data, err := c.do(ctx, request{
		op:     "list " + resource,
		method: http.MethodGet,
		path:   "/" + resource + "/educator/" + url.PathEscape(owner),
		query:  query,
	})
	if err != nil {
		return List{}, err
	}
	list, err := ParseList(data, resource)
	if err != nil {
		return List{}, errors.Wrapf(err, "list %s", resource)
	}
	list.Page, list.Limit = page, limit
	if c.listTTL > 0 {
		c.lists.SetDefault(key, list)
	}
	return list, nil
}

// InvalidateList drops the cached pages of the owner's resource list.
func (c *Client) InvalidateList(resource, owner string) {
	prefix := listKey(resource, owner)
	for key := range c.lists.Items() {
		if strings.HasPrefix(key, prefix) {
			c.lists.Delete(key)
		}
	}
}

// AnswerQuery posts the educator's answer to a student query.
func (c *Client) AnswerQuery(ctx context.Context, id, answer string) (wizard.Entity, error) {
	data, err := c.sendJSON(ctx, "answer query", http.MethodPost, entityPath("queries", id)+"/answer", map[string]string{"answer": answer})
	if err != nil {
		return nil, err
	}
	return ParseEntity(data, "queries")
}

func (c *Client) upload(ctx context.Context, op, path, field string, file *wizard.File, extra map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range extra {
		if err := w.WriteField(k, v); err != nil {
			return nil, errors.Wrap(err, "writing form field")
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, file.Name))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, errors.Wrap(err, "creating form file")
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, errors.Wrap(err, "writing form file")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "closing form")
	}
	return c.do(ctx, request{op: op, method: http.MethodPost, path: path, body: buf.Bytes(), contentType: w.FormDataContentType()})
}

func (c *Client) UploadImage(ctx context.Context, file *wizard.File, folder string) (string, error) {
	extra := map[string]string{}
	if folder != "" {
		extra["folder"] = folder
	}
	data, err := c.upload(ctx, "upload image", "/upload/image", "image", file, extra)
	if err != nil {
		return "", err
	}
	return parseImageUpload(data)
}

func (c *Client) UploadPDF(ctx context.Context, file *wizard.File) (string, error) {
	data, err := c.upload(ctx, "upload pdf", "/upload/pdf", "pdf", file, nil)
	if err != nil {
		return "", err
	}
	return parsePDFUpload(data)
}

// UploadIntroVideo attaches a video to a saved entity and returns its embed URL (possibly empty).
func (c *Client) UploadIntroVideo(ctx context.Context, resource, entityID string, file *wizard.File) (string, error) {
	data, err := c.upload(ctx, "upload intro video", entityPath(resource, entityID)+"/intro-video", "video", file, nil)
	if err != nil {
		return "", err
	}
	return parseVideoUpload(data)
}
