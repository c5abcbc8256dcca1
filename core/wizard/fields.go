package wizard

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// File is a pending upload held in a field until the pipeline replaces it with its URL.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f *File) Size() int64 { return int64(len(f.Data)) }

// FileInfo is the JSON view of a pending File.
type FileInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Pending     bool   `json:"pending"`
}

func (f *File) Info() FileInfo {
	return FileInfo{Name: f.Name, ContentType: f.ContentType, Size: f.Size(), Pending: true}
}

// Fields is the field store of a wizard session.
// Values are string, []string, bool, float64, *File, []interface{} (asset lists of *File or URL strings) or nil.
type Fields map[string]interface{}

// Update merges patch into f by key. Keys absent from patch are left untouched.
func (f Fields) Update(patch map[string]interface{}) {
	for key, value := range patch {
		f[key] = normalize(value)
	}
}

// Toggle removes value from the set at key when present, appends it otherwise.
func (f Fields) Toggle(key, value string) {
	set := f.Strings(key)
	out := make([]string, 0, len(set)+1)
	found := false
	for _, s := range set {
		if s == value {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, value)
	}
	f[key] = out
}

// Has reports whether the set at key contains value.
func (f Fields) Has(key, value string) bool {
	for _, s := range f.Strings(key) {
		if s == value {
			return true
		}
	}
	return false
}

func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for key, value := range f {
		switch v := value.(type) {
		case []string:
			out[key] = append([]string{}, v...)
		case []interface{}:
			out[key] = append([]interface{}{}, v...)
		default:
			out[key] = v
		}
	}
	return out
}

func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	}
	return ""
}

// Strings returns the set at key. A bare non-empty string is read as a one-element set.
func (f Fields) Strings(key string) []string {
	return toStrings(f[key])
}

func (f Fields) Bool(key string) bool {
	switch v := f[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

// Number returns the numeric value at key; numeric strings are parsed.
// ok is false when the field is empty or not a number.
func (f Fields) Number(key string) (n float64, ok bool) {
	return toNumber(f[key])
}

// File returns the pending file at key, if any.
func (f Fields) File(key string) (*File, bool) {
	file, ok := f[key].(*File)
	return file, ok && file != nil
}

// List returns the asset list at key: pending files and already uploaded URLs.
func (f Fields) List(key string) []interface{} {
	switch v := f[key].(type) {
	case []interface{}:
		return v
	case []string:
		out := make([]interface{}, 0, len(v))
		for _, s := range v {
			out = append(out, s)
		}
		return out
	case string:
		if v != "" {
			return []interface{}{v}
		}
	case *File:
		return []interface{}{v}
	}
	return nil
}

// Pending counts the files awaiting upload.
func (f Fields) Pending() int {
	count := 0
	for key, value := range f {
		switch value.(type) {
		case *File:
			count++
		case []interface{}:
			for _, item := range f.List(key) {
				if _, ok := item.(*File); ok {
					count++
				}
			}
		}
	}
	return count
}

// View renders the fields for JSON output, pending files as FileInfo.
func (f Fields) View() map[string]interface{} {
	out := make(map[string]interface{}, len(f))
	for key, value := range f {
		switch v := value.(type) {
		case *File:
			out[key] = v.Info()
		case []interface{}:
			items := make([]interface{}, 0, len(v))
			for _, item := range v {
				if file, ok := item.(*File); ok {
					items = append(items, file.Info())
				} else {
					items = append(items, item)
				}
			}
			out[key] = items
		default:
			out[key] = v
		}
	}
	return out
}

// Plain copies the fields without pending files, for payloads.
func (f Fields) Plain(skip ...string) map[string]interface{} {
	out := make(map[string]interface{}, len(f))
outer:
	for key, value := range f {
		for _, s := range skip {
			if s == key {
				continue outer
			}
		}
		switch v := value.(type) {
		case *File:
			continue
		case []interface{}:
			urls := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					urls = append(urls, s)
				}
			}
			out[key] = urls
		default:
			out[key] = v
		}
	}
	return out
}

// normalize turns decoded JSON arrays of strings into []string.
func normalize(value interface{}) interface{} {
	items, ok := value.([]interface{})
	if !ok {
		if n, ok := value.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				return f
			}
		}
		return value
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return value
		}
		out = append(out, s)
	}
	return out
}

func toStrings(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return []string{}
		}
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case map[string]interface{}:
				if id := Entity(it).ID(); id != "" {
					out = append(out, id)
				}
			case float64:
				out = append(out, strconv.FormatFloat(it, 'f', -1, 64))
			}
		}
		return out
	}
	return []string{}
}

// toNumber accepts finite numbers and numeric strings.
func toNumber(value interface{}) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
