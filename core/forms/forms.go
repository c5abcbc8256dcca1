// Package forms holds the wizard definitions of the dashboard entities.
package forms

import (
	"strings"
	"time"

	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/wizard"
)

const (
	KindCourse     = "course"
	KindLiveTest   = "live-test"
	KindTestSeries = "test-series"
	KindLiveClass  = "live-class"
	KindWebinar    = "webinar"
	KindQuestion   = "question"
	KindPost       = "post"
	KindProfile    = "profile"
)

// All returns a fresh definition of every wizard.
func All() []*wizard.Definition {
	return []*wizard.Definition{
		Course(),
		LiveTest(),
		TestSeries(),
		LiveClass(),
		Webinar(),
		Question(),
		Post(),
		Profile(),
	}
}

// payload sends the plain fields with numbers parsed and the owner attached.
func payload(fields wizard.Fields, owner educator.Educator, numeric []string, skip ...string) map[string]interface{} {
	p := fields.Plain(skip...)
	for _, key := range numeric {
		if n, ok := fields.Number(key); ok {
			p[key] = n
		}
	}
	p["educatorId"] = owner.ID
	return p
}

func isCourseSpecific(f wizard.Fields) bool { return f.Bool("courseSpecific") }

var dateTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"}

// ParseDateTime accepts RFC 3339 and the html datetime-local formats.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func validDateTime(field string) func(wizard.Fields) bool {
	return func(f wizard.Fields) bool {
		_, ok := ParseDateTime(f.String(field))
		return ok
	}
}
