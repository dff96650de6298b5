package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ProfileUser carries the public fields of the owning user that are joined
// onto profile responses. The user record itself lives outside this service.
type ProfileUser struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Avatar string `json:"avatar" db:"avatar"`
}

// Profile is the canonical developer profile record, one per user.
type Profile struct {
	ID             string         `json:"id" db:"id"`
	User           ProfileUser    `json:"user" db:"user"`
	Company        string         `json:"company,omitempty" db:"company"`
	Website        string         `json:"website,omitempty" db:"website"`
	Location       string         `json:"location,omitempty" db:"location"`
	Bio            string         `json:"bio,omitempty" db:"bio"`
	GithubUsername string         `json:"githubusername,omitempty" db:"githubusername"`
	Status         string         `json:"status" db:"status"`
	Skills         SkillList      `json:"skills" db:"skills"`
	Social         SocialLinks    `json:"social" db:"social"`
	Experience     ExperienceList `json:"experience" db:"experience"`
	Education      EducationList  `json:"education" db:"education"`
	CreatedAt      time.Time      `json:"date" db:"created_at"`
}

// Experience is one work-history entry. Most recent entries come first.
type Experience struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current"`
	Description string     `json:"description,omitempty"`
}

// Education is one education entry, ordered like Experience.
type Education struct {
	ID           string     `json:"id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"fieldofstudy"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to,omitempty"`
	Current      bool       `json:"current"`
	Description  string     `json:"description,omitempty"`
}

// SocialLinks holds the fixed set of optional social URLs. Absent keys are
// omitted from JSON rather than serialized as null.
type SocialLinks struct {
	Youtube   string `json:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

type (
	SkillList      []string
	ExperienceList []Experience
	EducationList  []Education
)

// The list and social types are stored as JSONB columns.

func (l SkillList) Value() (driver.Value, error)      { return jsonbValue(l) }
func (l *SkillList) Scan(src interface{}) error       { return jsonbScan(src, l) }
func (l ExperienceList) Value() (driver.Value, error) { return jsonbValue(l) }
func (l *ExperienceList) Scan(src interface{}) error  { return jsonbScan(src, l) }
func (l EducationList) Value() (driver.Value, error)  { return jsonbValue(l) }
func (l *EducationList) Scan(src interface{}) error   { return jsonbScan(src, l) }
func (s SocialLinks) Value() (driver.Value, error)    { return jsonbValue(s) }
func (s *SocialLinks) Scan(src interface{}) error     { return jsonbScan(src, s) }

func jsonbValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb column: %w", err)
	}
	return b, nil
}

func jsonbScan(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}

// ProfileForm is the create-or-update request body. Pointer fields make an
// omitted field distinguishable from one explicitly set to the empty string:
// nil leaves the stored value untouched, a non-nil value overwrites it.
type ProfileForm struct {
	Company        *string `json:"company"`
	Website        *string `json:"website"`
	Location       *string `json:"location"`
	Bio            *string `json:"bio"`
	Status         *string `json:"status"`
	GithubUsername *string `json:"githubusername"`
	Skills         *string `json:"skills"`
	Youtube        *string `json:"youtube"`
	Twitter        *string `json:"twitter"`
	Facebook       *string `json:"facebook"`
	Linkedin       *string `json:"linkedin"`
	Instagram      *string `json:"instagram"`
}

// SkillList splits the submitted comma-separated skills string into trimmed,
// non-empty tokens, order preserved.
func (f ProfileForm) SkillList() SkillList {
	if f.Skills == nil {
		return nil
	}
	var skills SkillList
	for _, token := range strings.Split(*f.Skills, ",") {
		if s := strings.TrimSpace(token); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// Apply merges the form onto an existing profile. Only provided fields
// overwrite; everything else keeps its stored value.
func (f ProfileForm) Apply(p *Profile) {
	setString(&p.Company, f.Company)
	setString(&p.Website, f.Website)
	setString(&p.Location, f.Location)
	setString(&p.Bio, f.Bio)
	setString(&p.Status, f.Status)
	setString(&p.GithubUsername, f.GithubUsername)
	if f.Skills != nil {
		p.Skills = f.SkillList()
	}
	setString(&p.Social.Youtube, f.Youtube)
	setString(&p.Social.Twitter, f.Twitter)
	setString(&p.Social.Facebook, f.Facebook)
	setString(&p.Social.Linkedin, f.Linkedin)
	setString(&p.Social.Instagram, f.Instagram)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// ExperienceForm is the add-experience request body. From and To are
// submitted as YYYY-MM-DD strings.
type ExperienceForm struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	From        string `json:"from"`
	To          string `json:"to"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// EducationForm is the add-education request body.
type EducationForm struct {
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldofstudy"`
	From         string `json:"from"`
	To           string `json:"to"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

const dateLayout = "2006-01-02"

// ParseDate parses a submitted YYYY-MM-DD form date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
