package profiles

import (
	"html"
	"slices"
	"strings"

	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/services"
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer normalizes free-text profile fields and rejects markup. Profiles
// are plain text: a field is stored as submitted, apart from surrounding
// whitespace and line endings, or the whole write is refused.
type Sanitizer struct {
	policy   *bluemonday.Policy
	newlines *strings.Replacer
}

// NewSanitizer creates a Sanitizer backed by bluemonday's strict policy
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		policy:   bluemonday.StrictPolicy(),
		newlines: strings.NewReplacer("\r\n", "\n", "\r", "\n"),
	}
}

// Text returns v trimmed and reports whether it is plain text. Text that
// loses anything to the strict policy, other than entity encoding, carries
// markup. A bare "<" or "&" is plain text.
func (s *Sanitizer) Text(v string) (string, bool) {
	v = strings.TrimSpace(s.newlines.Replace(v))
	if v == "" {
		return "", true
	}
	return v, html.UnescapeString(s.policy.Sanitize(v)) == html.UnescapeString(v)
}

// fieldCheck collects the fields of one write that carry markup or that
// are required but blank.
type fieldCheck struct {
	s      *Sanitizer
	markup []string
	blank  []string
}

func (c *fieldCheck) plain(field, v string) string {
	v, ok := c.s.Text(v)
	if !ok && !slices.Contains(c.markup, field) {
		c.markup = append(c.markup, field)
	}
	return v
}

func (c *fieldCheck) text(field string, p *string) *string {
	if p == nil {
		return nil
	}
	v := c.plain(field, *p)
	return &v
}

func (c *fieldCheck) required(field string, p *string) *string {
	out := c.text(field, p)
	if out != nil && *out == "" {
		c.blank = append(c.blank, field)
	}
	return out
}

func (c *fieldCheck) list(field string, p *[]string) *[]string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(*p))
	for _, v := range *p {
		if v = c.plain(field, v); v != "" {
			out = append(out, v)
		}
	}
	return &out
}

func (c *fieldCheck) links(field string, p *models.SocialLinks) *models.SocialLinks {
	if p == nil {
		return nil
	}
	out := make(models.SocialLinks, len(*p))
	for k, v := range *p {
		if k = c.plain(field, k); k != "" {
			out[k] = c.plain(field, v)
		}
	}
	return &out
}

func (c *fieldCheck) err() error {
	if len(c.markup) > 0 {
		return services.ErrMarkupNotAllowed.WithDetail("fields", c.markup)
	}
	if len(c.blank) > 0 {
		return services.ErrMissingRequiredFields.WithDetail("fields", c.blank)
	}
	return nil
}

// Alumni returns a normalized copy of u
func (s *Sanitizer) Alumni(u models.AlumniProfileUpdate) (models.AlumniProfileUpdate, error) {
	c := &fieldCheck{s: s}
	u.Name = c.required("name", u.Name)
	u.Phone = c.text("phone", u.Phone)
	u.Bio = c.text("bio", u.Bio)
	u.Location = c.text("location", u.Location)
	u.Department = c.required("department", u.Department)
	u.CurrentPosition = c.text("current_position", u.CurrentPosition)
	u.CurrentCompany = c.text("current_company", u.CurrentCompany)
	u.Achievements = c.list("achievements", u.Achievements)
	u.MentorshipAreas = c.list("mentorship_areas", u.MentorshipAreas)
	u.SocialLinks = c.links("social_links", u.SocialLinks)
	return u, c.err()
}

// Student returns a normalized copy of u
func (s *Sanitizer) Student(u models.StudentProfileUpdate) (models.StudentProfileUpdate, error) {
	c := &fieldCheck{s: s}
	u.Name = c.required("name", u.Name)
	u.Phone = c.text("phone", u.Phone)
	u.Bio = c.text("bio", u.Bio)
	u.Location = c.text("location", u.Location)
	u.Department = c.required("department", u.Department)
	u.Interests = c.list("interests", u.Interests)
	u.Skills = c.list("skills", u.Skills)
	u.MentorshipInterests = c.list("mentorship_interests", u.MentorshipInterests)
	u.SocialLinks = c.links("social_links", u.SocialLinks)
	if u.Projects != nil {
		projects := make([]models.Project, 0, len(*u.Projects))
		for _, p := range *u.Projects {
			projects = append(projects, models.Project{
				Title:       c.plain("projects", p.Title),
				Description: c.plain("projects", p.Description),
				URL:         strings.TrimSpace(p.URL),
			})
		}
		u.Projects = &projects
	}
	return u, c.err()
}
