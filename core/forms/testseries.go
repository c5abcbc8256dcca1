package forms

import (
	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/wizard"
)

func TestSeries() *wizard.Definition {
	return &wizard.Definition{
		Kind:     KindTestSeries,
		Label:    "test series",
		Resource: "test-series",
		Steps: []wizard.Step{
			{ID: "basics", Title: "Basic information", Rules: []wizard.Rule{
				wizard.Text("title", "Title", "required,min=3").WithMessage("Title must be at least 3 characters"),
				wizard.Text("description", "Description", "required,min=10").WithMessage("Description must be at least 10 characters"),
			}},
			{ID: "audience", Title: "Target audience", Rules: []wizard.Rule{
				wizard.Set("exams", "Exams", "min=1").WithMessage("Please select at least one exam"),
				wizard.Set("subjects", "Subjects", "min=1").WithMessage("Please select at least one subject"),
				wizard.Text("courseId", "Course", "required").WithMessage("Please select a course").If(isCourseSpecific),
			}},
			{ID: "pricing", Title: "Pricing", Rules: []wizard.Rule{
				wizard.Number("fee", "Fee", "gte=0").WithMessage("Fee must be 0 or more"),
				wizard.Number("discount", "Discount", "gte=0,lte=100").WithMessage("Discount must be between 0 and 100"),
				wizard.Number("validityDays", "Validity", "gte=1").WithMessage("Validity must be at least 1 day"),
			}},
			{ID: "tests", Title: "Tests", Rules: []wizard.Rule{
				wizard.Set("tests", "Tests", "min=1").WithMessage("Please add at least one test"),
			}},
		},
		Defaults: func() wizard.Fields {
			return wizard.Fields{
				"title":          "",
				"description":    "",
				"exams":          []string{},
				"subjects":       []string{},
				"courseSpecific": false,
				"courseId":       "",
				"fee":            0.0,
				"discount":       0.0,
				"validityDays":   365.0,
				"tests":          []string{},
				"image":          nil,
				"syllabus":       []interface{}{},
			}
		},
		Aliases: map[string]string{
			"subject": "subjects",
			"exam":    "exams",
			"course":  "courseId",
		},
		Image:       "image",
		ImageFolder: "test-series",
		Assets:      []string{"syllabus"},
		Payload: func(fields wizard.Fields, owner educator.Educator) map[string]interface{} {
			p := payload(fields, owner, []string{"fee", "discount", "validityDays"})
			if !isCourseSpecific(fields) {
				delete(p, "courseId")
			}
			return p
		},
	}
}
