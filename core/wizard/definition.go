package wizard

import (
	"strconv"

	"github.com/trezcool/tutordesk/core/educator"
)

// Entity is a backend record, opaque to the wizard.
type Entity map[string]interface{}

// ID returns the entity's `_id` (or `id`).
func (e Entity) ID() string {
	for _, key := range []string{"_id", "id"} {
		switch id := e[key].(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		}
	}
	return ""
}

type FileKind string

const (
	FileImage FileKind = "image"
	FilePDF   FileKind = "pdf"
	FileVideo FileKind = "video"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Definition parameterizes the controller for one entity type.
type Definition struct {
	Kind     string // wizard kind, used in URLs
	Label    string // human name, used in messages
	Resource string // backend resource path
	Steps    []Step
	Defaults func() Fields
	EditOnly bool

	// Aliases maps entity keys to field keys when hydrating.
	Aliases map[string]string

	Image       string // cover image field, uploaded before save
	ImageFolder string
	Assets      []string // PDF list fields, uploaded in order before save
	Video       string   // intro video field, uploaded after save

	// Payload builds the create/update body from resolved fields.
	// When nil the plain fields are sent.
	Payload func(fields Fields, owner educator.Educator) map[string]interface{}
}

// FileKind reports which kind of file field accepts.
func (d *Definition) FileKind(field string) (FileKind, bool) {
	switch {
	case field == "":
		return "", false
	case field == d.Image:
		return FileImage, true
	case field == d.Video:
		return FileVideo, true
	}
	for _, a := range d.Assets {
		if a == field {
			return FilePDF, true
		}
	}
	return "", false
}

func (d *Definition) isAsset(field string) bool {
	kind, ok := d.FileKind(field)
	return ok && kind == FilePDF
}

// Hydrate builds the fields of an edit session from entity.
// Values are coerced to the type of the field's default; unknown keys are ignored.
func (d *Definition) Hydrate(entity Entity) Fields {
	fields := d.Defaults()
	for key, value := range entity {
		field := key
		if alias, ok := d.Aliases[key]; ok {
			field = alias
		}
		def, known := fields[field]
		if !known {
			continue
		}
		fields[field] = coerce(def, value)
	}
	return fields
}

func (d *Definition) payload(fields Fields, owner educator.Educator) map[string]interface{} {
	if d.Payload != nil {
		return d.Payload(fields, owner)
	}
	return fields.Plain(d.Video)
}

func coerce(def, value interface{}) interface{} {
	switch def.(type) {
	case []string:
		return toStrings(value)
	case []interface{}:
		urls := toStrings(value)
		out := make([]interface{}, 0, len(urls))
		for _, u := range urls {
			out = append(out, u)
		}
		return out
	case string:
		switch value.(type) {
		case []interface{}, []string:
			// a single choice stored as a list keeps its first element
			if items := toStrings(value); len(items) > 0 {
				return items[0]
			}
			return def
		}
		return Fields{"v": value}.String("v")
	case bool:
		return Fields{"v": value}.Bool("v")
	case float64:
		if n, ok := toNumber(value); ok {
			return n
		}
		return def
	}
	// file slots default to nil and take the stored URL
	if value == nil {
		return def
	}
	return value
}
