// Package questionbank filters an educator's questions.
package questionbank

import (
	"strings"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/wizard"
)

const all = "all"

type Question struct {
	ID         string   `json:"_id"`
	Question   string   `json:"question"`
	Subject    string   `json:"subject"`
	Topic      string   `json:"topic"`
	Difficulty string   `json:"difficulty"`
	Type       string   `json:"type"`
	Exams      []string `json:"exams"`
}

// Filter selects questions; empty (or "all") criteria match everything.
type Filter struct {
	Search     string `query:"search" json:"search"`
	Subject    string `query:"subject" json:"subject"`
	Topic      string `query:"topic" json:"topic"`
	Difficulty string `query:"difficulty" json:"difficulty"`
	Type       string `query:"type" json:"type"`
	Exam       string `query:"exam" json:"exam"`
}

func (f Filter) Match(q Question) bool {
	if search := core.CleanString(f.Search, true); search != "" {
		if !strings.Contains(strings.ToLower(q.Question), search) && !strings.Contains(strings.ToLower(q.Topic), search) {
			return false
		}
	}
	if !equal(f.Subject, q.Subject) || !equal(f.Topic, q.Topic) || !equal(f.Difficulty, q.Difficulty) || !equal(f.Type, q.Type) {
		return false
	}
	if exam := core.CleanString(f.Exam, true); exam != "" && exam != all {
		for _, e := range q.Exams {
			if strings.EqualFold(e, exam) {
				return true
			}
		}
		return false
	}
	return true
}

// Apply keeps the questions matching f, in order.
func Apply(questions []Question, f Filter) []Question {
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		if f.Match(q) {
			out = append(out, q)
		}
	}
	return out
}

func equal(want, got string) bool {
	want = core.CleanString(want, true)
	return want == "" || want == all || strings.EqualFold(want, core.CleanString(got))
}

// FromEntities reads questions out of backend entities.
func FromEntities(entities []wizard.Entity) []Question {
	questions := make([]Question, 0, len(entities))
	for _, e := range entities {
		fields := wizard.Fields(e)
		subject := fields.String("subject")
		if subject == "" {
			if s := fields.Strings("subjects"); len(s) > 0 {
				subject = s[0]
			}
		}
		questions = append(questions, Question{
			ID:         e.ID(),
			Question:   fields.String("question"),
			Subject:    subject,
			Topic:      fields.String("topic"),
			Difficulty: fields.String("difficulty"),
			Type:       fields.String("type"),
			Exams:      fields.Strings("exams"),
		})
	}
	return questions
}
