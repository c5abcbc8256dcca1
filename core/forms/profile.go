package forms

import (
	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/wizard"
)

// Profile edits the educator's own profile; it cannot create one.
func Profile() *wizard.Definition {
	return &wizard.Definition{
		Kind:     KindProfile,
		Label:    "profile",
		Resource: "educators",
		EditOnly: true,
		Steps: []wizard.Step{
			{ID: "personal", Title: "Personal details", Rules: []wizard.Rule{
				wizard.Text("name", "Name", "required,min=2").WithMessage("Name must be at least 2 characters"),
				wizard.Text("phone", "Phone", "omitempty,min=7,max=15").WithMessage("Please enter a valid phone number"),
				wizard.Text("bio", "Bio", "max=500").WithMessage("Bio must be at most 500 characters"),
			}},
			{ID: "professional", Title: "Professional details", Rules: []wizard.Rule{
				wizard.Number("experience", "Experience", "gte=0,lte=60").WithMessage("Experience must be between 0 and 60 years"),
				wizard.Set("subjects", "Subjects", "min=1").WithMessage("Please select at least one subject"),
			}},
		},
		Defaults: func() wizard.Fields {
			return wizard.Fields{
				"name":            "",
				"phone":           "",
				"bio":             "",
				"qualification":   "",
				"experience":      0.0,
				"specializations": []string{},
				"subjects":        []string{},
				"profileImage":    nil,
			}
		},
		Aliases: map[string]string{
			"image":          "profileImage",
			"subject":        "subjects",
			"specialization": "specializations",
		},
		Image:       "profileImage",
		ImageFolder: "educators",
		Payload: func(fields wizard.Fields, owner educator.Educator) map[string]interface{} {
			p := payload(fields, owner, []string{"experience"})
			delete(p, "educatorId")
			return p
		},
	}
}
