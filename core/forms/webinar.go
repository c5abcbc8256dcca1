package forms

import (
	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/wizard"
)

const MaxWebinarMinutes = 480

func Webinar() *wizard.Definition {
	return &wizard.Definition{
		Kind:     KindWebinar,
		Label:    "webinar",
		Resource: "webinars",
		Steps: []wizard.Step{
			{ID: "webinar", Title: "Webinar", Rules: []wizard.Rule{
				wizard.Text("title", "Title", "required,min=3").WithMessage("Title must be at least 3 characters"),
				wizard.Text("startTime", "Start time", "required").WithMessage("Please pick a start time"),
				wizard.Check("startTime", "Start time is not a valid date", validDateTime("startTime")),
				wizard.Number("duration", "Duration", "gte=1,lte=480").WithMessage("Duration must be between 1 and 480 minutes"),
			}},
		},
		Defaults: func() wizard.Fields {
			return wizard.Fields{
				"title":       "",
				"description": "",
				"subjects":    []string{},
				"startTime":   "",
				"duration":    60.0,
				"isFree":      true,
				"fee":         0.0,
				"image":       nil,
			}
		},
		Aliases:     map[string]string{"subject": "subjects"},
		Image:       "image",
		ImageFolder: "webinars",
		Payload: func(fields wizard.Fields, owner educator.Educator) map[string]interface{} {
			return payload(fields, owner, []string{"duration", "fee"})
		},
	}
}
