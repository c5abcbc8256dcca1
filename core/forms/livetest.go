package forms

import (
	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/wizard"
)

func LiveTest() *wizard.Definition {
	return &wizard.Definition{
		Kind:     KindLiveTest,
		Label:    "live test",
		Resource: "live-tests",
		Steps: []wizard.Step{
			{ID: "details", Title: "Test details", Rules: []wizard.Rule{
				wizard.Text("title", "Title", "required,min=3").WithMessage("Title must be at least 3 characters"),
				wizard.Text("description", "Description", "required,min=10").WithMessage("Description must be at least 10 characters"),
				wizard.Set("exams", "Exams", "min=1").WithMessage("Please select at least one exam"),
				wizard.Set("subjects", "Subjects", "min=1").WithMessage("Please select at least one subject"),
				wizard.Text("courseId", "Course", "required").WithMessage("Please select a course").If(isCourseSpecific),
			}},
			{ID: "schedule", Title: "Schedule", Rules: []wizard.Rule{
				wizard.Text("startTime", "Start time", "required").WithMessage("Please pick a start time"),
				wizard.Check("startTime", "Start time is not a valid date", validDateTime("startTime")),
				wizard.Number("duration", "Duration", "gte=1,lte=1440").WithMessage("Duration must be between 1 and 1440 minutes"),
			}},
			{ID: "marking", Title: "Marking scheme", Rules: []wizard.Rule{
				wizard.Number("positiveMarks", "Positive marks", "gt=0").WithMessage("Positive marks must be greater than 0"),
				wizard.Number("negativeMarks", "Negative marks", "lte=0").WithMessage("Negative marks must be 0 or less"),
			}},
			{ID: "questions", Title: "Questions", Rules: []wizard.Rule{
				wizard.Set("questions", "Questions", "min=1").WithMessage("Please select at least one question"),
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
				"startTime":      "",
				"duration":       60.0,
				"positiveMarks":  4.0,
				"negativeMarks":  -1.0,
				"instructions":   "",
				"questions":      []string{},
			}
		},
		Aliases: map[string]string{
			"subject": "subjects",
			"exam":    "exams",
			"course":  "courseId",
		},
		Payload: func(fields wizard.Fields, owner educator.Educator) map[string]interface{} {
			p := payload(fields, owner, []string{"duration", "positiveMarks", "negativeMarks"})
			if !isCourseSpecific(fields) {
				delete(p, "courseId")
			}
			return p
		},
	}
}
