package backend

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/tutordesk/core/wizard"
)

// resourceNames are the envelope keys the backend uses per resource.
var resourceNames = map[string][2]string{
	"courses":      {"course", "courses"},
	"live-tests":   {"liveTest", "liveTests"},
	"test-series":  {"testSeries", "testSeries"},
	"live-classes": {"liveClass", "liveClasses"},
	"webinars":     {"webinar", "webinars"},
	"questions":    {"question", "questions"},
	"posts":        {"post", "posts"},
	"queries":      {"query", "queries"},
	"educators":    {"educator", "educators"},
}

// Names returns the singular and plural envelope keys of resource.
func Names(resource string) (singular, plural string) {
	if names, ok := resourceNames[resource]; ok {
		return names[0], names[1]
	}
	parts := strings.Split(resource, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	plural = strings.Join(parts, "")
	return strings.TrimSuffix(plural, "s"), plural
}

func decode(body []byte) (interface{}, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "decoding response")
	}
	return v, nil
}

// ParseEntity unwraps `{data: E}`, `{entity: E}`, `{<singular>: E}` or a bare E.
func ParseEntity(body []byte, resource string) (wizard.Entity, error) {
	v, err := decode(body)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, errors.New("expected a JSON object")
	}
	singular, _ := Names(resource)
	for _, key := range []string{"data", "entity", singular} {
		if inner, ok := obj[key].(map[string]interface{}); ok {
			return inner, nil
		}
	}
	return obj, nil
}

// List is a page of entities.
type List struct {
	Items []wizard.Entity `json:"items"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ParseList unwraps a bare array, `{data: []}`, `{entities: []}` or `{<plural>: []}`.
// Total is read from `total`, `count` or `pagination.total` when present.
func ParseList(body []byte, resource string) (List, error) {
	v, err := decode(body)
	if err != nil {
		return List{}, err
	}
	_, plural := Names(resource)

	var items []interface{}
	total := -1
	switch val := v.(type) {
	case nil:
	case []interface{}:
		items = val
	case map[string]interface{}:
		found := false
		for _, key := range []string{"data", "entities", plural, "items", "results"} {
			if arr, ok := val[key].([]interface{}); ok {
				items, found = arr, true
				break
			}
			// {data: {<plural>: [], total}}
			if inner, ok := val[key].(map[string]interface{}); ok {
				if arr, ok := inner[plural].([]interface{}); ok {
					items, found = arr, true
					total = intOf(inner["total"], total)
					break
				}
			}
		}
		if !found {
			return List{}, errors.New("no list found in response")
		}
		total = intOf(val["total"], total)
		total = intOf(val["count"], total)
		if pagination, ok := val["pagination"].(map[string]interface{}); ok {
			total = intOf(pagination["total"], total)
		}
	default:
		return List{}, errors.New("expected a JSON array or object")
	}

	list := List{Items: make([]wizard.Entity, 0, len(items))}
	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			list.Items = append(list.Items, obj)
		}
	}
	list.Total = total
	if total < 0 {
		list.Total = len(list.Items)
	}
	return list, nil
}

func intOf(v interface{}, fallback int) int {
	if n, ok := v.(float64); ok {
		return int(n)
	}
	return fallback
}

// str returns the first non-empty string found at keys of obj or of its `data` object.
func str(obj map[string]interface{}, keys ...string) string {
	for _, o := range []map[string]interface{}{obj, nested(obj, "data")} {
		for _, key := range keys {
			if s, ok := o[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func nested(obj map[string]interface{}, key string) map[string]interface{} {
	inner, _ := obj[key].(map[string]interface{})
	return inner
}

func parseObject(body []byte) (map[string]interface{}, error) {
	v, err := decode(body)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, errors.New("expected a JSON object")
	}
	return obj, nil
}

// parseImageUpload reads `{success, imageUrl}`.
func parseImageUpload(body []byte) (string, error) {
	obj, err := parseObject(body)
	if err != nil {
		return "", err
	}
	if ok, present := obj["success"].(bool); present && !ok {
		return "", &APIError{Op: "upload image", Status: 200, Message: str(obj, "message")}
	}
	url := str(obj, "imageUrl", "url")
	if url == "" {
		return "", errors.New("no image url in response")
	}
	return url, nil
}

// parsePDFUpload reads `{fileUrl}` or `{url}`.
func parsePDFUpload(body []byte) (string, error) {
	obj, err := parseObject(body)
	if err != nil {
		return "", err
	}
	url := str(obj, "fileUrl", "url", "secure_url")
	if url == "" {
		return "", errors.New("no file url in response")
	}
	return url, nil
}

// parseVideoUpload reads `{data: {introVideo|embedUrl}}`.
func parseVideoUpload(body []byte) (string, error) {
	obj, err := parseObject(body)
	if err != nil {
		return "", err
	}
	return str(obj, "introVideo", "embedUrl"), nil
}
