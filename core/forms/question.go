package forms

import (
	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/wizard"
)

func Question() *wizard.Definition {
	return &wizard.Definition{
		Kind:     KindQuestion,
		Label:    "question",
		Resource: "questions",
		Steps: []wizard.Step{
			{ID: "question", Title: "Question", Rules: []wizard.Rule{
				wizard.Text("question", "Question", "required,min=5").WithMessage("Question must be at least 5 characters"),
				wizard.Text("type", "Type", "oneof=mcq msq numeric subjective").WithMessage("Please select a question type"),
				wizard.Check("options", "Please add at least two options", hasOptions),
				wizard.Check("correctAnswers", "Please mark the correct answer", hasAnswer),
				wizard.Text("subject", "Subject", "required").WithMessage("Please select a subject"),
				wizard.Text("difficulty", "Difficulty", "oneof=easy medium hard").WithMessage("Please select a difficulty"),
				wizard.Number("positiveMarks", "Positive marks", "gt=0").WithMessage("Positive marks must be greater than 0"),
				wizard.Number("negativeMarks", "Negative marks", "lte=0").WithMessage("Negative marks must be 0 or less"),
			}},
		},
		Defaults: func() wizard.Fields {
			return wizard.Fields{
				"question":       "",
				"type":           "mcq",
				"options":        []string{},
				"correctAnswers": []string{},
				"subject":        "",
				"topic":          "",
				"difficulty":     "medium",
				"exams":          []string{},
				"positiveMarks":  4.0,
				"negativeMarks":  -1.0,
				"explanation":    "",
				"image":          nil,
			}
		},
		Aliases: map[string]string{
			"exam":          "exams",
			"correctAnswer": "correctAnswers",
		},
		Image:       "image",
		ImageFolder: "questions",
		Payload: func(fields wizard.Fields, owner educator.Educator) map[string]interface{} {
			return payload(fields, owner, []string{"positiveMarks", "negativeMarks"})
		},
	}
}

func isChoice(f wizard.Fields) bool {
	t := f.String("type")
	return t == "mcq" || t == "msq"
}

func hasOptions(f wizard.Fields) bool {
	if !isChoice(f) {
		return true
	}
	n := 0
	for _, opt := range f.Strings("options") {
		if core.CleanString(opt) != "" {
			n++
		}
	}
	return n >= 2
}

func hasAnswer(f wizard.Fields) bool {
	if f.String("type") == "subjective" {
		return true
	}
	answers := f.Strings("correctAnswers")
	if len(answers) == 0 {
		return false
	}
	if !isChoice(f) {
		return true
	}
	for _, a := range answers {
		if !f.Has("options", a) {
			return false
		}
	}
	return f.String("type") == "msq" || len(answers) == 1
}
