package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestSkillListNormalization(t *testing.T) {
	tests := []struct {
		name   string
		skills *string
		want   SkillList
	}{
		{"trims and drops empties", strPtr(" node, react ,  express"), SkillList{"node", "react", "express"}},
		{"single skill", strPtr("go"), SkillList{"go"}},
		{"only separators", strPtr(" , ,, "), nil},
		{"omitted", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := ProfileForm{Skills: tt.skills}
			assert.Equal(t, tt.want, form.SkillList())
		})
	}
}

func TestProfileFormApply(t *testing.T) {
	p := Profile{
		Company:  "Acme",
		Location: "Berlin",
		Status:   "Developer",
		Skills:   SkillList{"go"},
		Social:   SocialLinks{Twitter: "https://twitter.com/jane"},
	}

	ProfileForm{
		Company: strPtr("Globex"),
		Bio:     strPtr("hello"),
		Website: strPtr(""), // explicitly cleared, not omitted
		Youtube: strPtr("https://youtube.com/@jane"),
	}.Apply(&p)

	assert.Equal(t, "Globex", p.Company)
	assert.Equal(t, "hello", p.Bio)
	assert.Equal(t, "", p.Website)
	// Omitted fields keep their stored values.
	assert.Equal(t, "Berlin", p.Location)
	assert.Equal(t, "Developer", p.Status)
	assert.Equal(t, SkillList{"go"}, p.Skills)
	assert.Equal(t, "https://twitter.com/jane", p.Social.Twitter)
	assert.Equal(t, "https://youtube.com/@jane", p.Social.Youtube)
}
