package forms

import (
	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/wizard"
)

func Post() *wizard.Definition {
	return &wizard.Definition{
		Kind:     KindPost,
		Label:    "post",
		Resource: "posts",
		Steps: []wizard.Step{
			{ID: "post", Title: "Post", Rules: []wizard.Rule{
				wizard.Text("title", "Title", "required,min=3").WithMessage("Title must be at least 3 characters"),
				wizard.Text("content", "Content", "required,min=10").WithMessage("Content must be at least 10 characters"),
			}},
		},
		Defaults: func() wizard.Fields {
			return wizard.Fields{
				"title":   "",
				"content": "",
				"tags":    []string{},
				"image":   nil,
			}
		},
		Aliases:     map[string]string{"tag": "tags"},
		Image:       "image",
		ImageFolder: "posts",
		Payload: func(fields wizard.Fields, owner educator.Educator) map[string]interface{} {
			return payload(fields, owner, nil)
		},
	}
}
