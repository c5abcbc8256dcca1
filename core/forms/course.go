package forms

import (
	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/wizard"
)

func Course() *wizard.Definition {
	return &wizard.Definition{
		Kind:     KindCourse,
		Label:    "course",
		Resource: "courses",
		Steps: []wizard.Step{
			{ID: "basics", Title: "Basic information", Rules: []wizard.Rule{
				wizard.Text("title", "Title", "required,min=3").WithMessage("Title must be at least 3 characters"),
				wizard.Text("description", "Description", "required,min=20").WithMessage("Description must be at least 20 characters"),
				wizard.Number("fee", "Fee", "gte=0").WithMessage("Fee must be 0 or more"),
			}},
			{ID: "audience", Title: "Target audience", Rules: []wizard.Rule{
				wizard.Set("exams", "Exams", "min=1").WithMessage("Please select at least one exam"),
				wizard.Set("classes", "Classes", "min=1").WithMessage("Please select at least one class"),
				wizard.Set("subjects", "Subjects", "min=1").WithMessage("Please select at least one subject"),
			}},
			{ID: "media", Title: "Media", Rules: []wizard.Rule{
				wizard.Text("language", "Language", "required").WithMessage("Please select a language"),
			}},
			{ID: "features", Title: "Features"},
			{ID: "content", Title: "Course content"},
		},
		Defaults: func() wizard.Fields {
			return wizard.Fields{
				"title":          "",
				"description":    "",
				"fee":            0.0,
				"discount":       0.0,
				"exams":          []string{},
				"classes":        []string{},
				"subjects":       []string{},
				"language":       "",
				"validity":       "",
				"features":       []string{},
				"hasCertificate": false,
				"isPublished":    false,
				"syllabus":       "",
				"image":          nil,
				"pdfs":           []interface{}{},
				"introVideo":     nil,
			}
		},
		Aliases: map[string]string{
			"subject":   "subjects",
			"exam":      "exams",
			"class":     "classes",
			"thumbnail": "image",
		},
		Image:       "image",
		ImageFolder: "courses",
		Assets:      []string{"pdfs"},
		Video:       "introVideo",
		Payload: func(fields wizard.Fields, owner educator.Educator) map[string]interface{} {
			return payload(fields, owner, []string{"fee", "discount"}, "introVideo")
		},
	}
}
