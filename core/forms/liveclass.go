package forms

import (
	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/wizard"
)

func LiveClass() *wizard.Definition {
	return &wizard.Definition{
		Kind:     KindLiveClass,
		Label:    "live class",
		Resource: "live-classes",
		Steps: []wizard.Step{
			{ID: "class", Title: "Live class", Rules: []wizard.Rule{
				wizard.Check("subjects", "Please select subject and specialization.", func(f wizard.Fields) bool {
					return len(f.Strings("subjects")) > 0 && len(f.Strings("specializations")) > 0
				}),
				wizard.Text("title", "Title", "required,min=3").WithMessage("Title must be at least 3 characters"),
				wizard.Text("startTime", "Start time", "required").WithMessage("Please pick a start time"),
				wizard.Check("startTime", "Start time is not a valid date", validDateTime("startTime")),
				wizard.Number("duration", "Duration", "gte=1,lte=1440").WithMessage("Duration must be between 1 and 1440 minutes"),
				wizard.Number("fee", "Fee", "gte=0").WithMessage("Fee must be 0 or more"),
			}},
		},
		Defaults: func() wizard.Fields {
			return wizard.Fields{
				"title":           "",
				"description":     "",
				"subjects":        []string{},
				"specializations": []string{},
				"classes":         []string{},
				"startTime":       "",
				"duration":        60.0,
				"fee":             0.0,
				"isFree":          true,
				"meetingLink":     "",
			}
		},
		Aliases: map[string]string{
			"subject":        "subjects",
			"specialization": "specializations",
		},
		Payload: func(fields wizard.Fields, owner educator.Educator) map[string]interface{} {
			return payload(fields, owner, []string{"duration", "fee"})
		},
	}
}
