package templates

import (
	"strings"

	"cvforge/internal/cv"
)

const untitled = "Curriculum Vitae"

type view struct {
	Template       Name
	Title          string
	Info           cv.PersonalInfo
	WebsiteLabel   string
	Summary        string
	Experience     []periodEntry
	Education      []periodEntry
	Skills         []chip
	Languages      []chip
	Certifications []cv.Certification
}

type periodEntry struct {
	Heading     string
	Subheading  string
	Detail      string
	Description string
	Period      string
}

type chip struct {
	Name  string
	Level cv.Level
	Label string
}

var skillLabels = map[cv.Level]string{
	cv.LevelBeginner:     "Beginner",
	cv.LevelIntermediate: "Intermediate",
	cv.LevelAdvanced:     "Advanced",
	cv.LevelExpert:       "Expert",
}

var languageLabels = map[cv.Level]string{
	cv.LevelBeginner:     "Beginner",
	cv.LevelIntermediate: "Intermediate",
	cv.LevelAdvanced:     "Advanced",
	cv.LevelExpert:       "Native",
}

func newView(n Name, d cv.Data) view {
	d = d.Normalize()
	v := view{
		Template:       n,
		Title:          strings.TrimSpace(d.PersonalInfo.FullName),
		Info:           d.PersonalInfo,
		WebsiteLabel:   strings.TrimPrefix(strings.TrimPrefix(d.PersonalInfo.Website, "https://"), "http://"),
		Summary:        strings.TrimSpace(d.Summary),
		Certifications: d.Certifications,
	}
	if v.Title == "" {
		v.Title = untitled
	}

	// most recent first: entries are authored oldest first
	for i := len(d.Experience) - 1; i >= 0; i-- {
		e := d.Experience[i]
		v.Experience = append(v.Experience, periodEntry{
			Heading:     e.Position,
			Subheading:  e.Company,
			Description: e.Description,
			Period:      period(e.StartDate, e.EndDate, e.Current),
		})
	}
	for i := len(d.Education) - 1; i >= 0; i-- {
		e := d.Education[i]
		v.Education = append(v.Education, periodEntry{
			Heading:    e.Degree,
			Subheading: e.Institution,
			Detail:     e.Field,
			Period:     period(e.StartDate, e.EndDate, e.Current),
		})
	}
	v.Skills = chips(d.Skills, skillLabels)
	v.Languages = chips(d.Languages, languageLabels)
	return v
}

func chips(items []cv.Skill, labels map[cv.Level]string) []chip {
	out := make([]chip, 0, len(items))
	for _, s := range items {
		out = append(out, chip{Name: s.Name, Level: s.Level, Label: labels[s.Level]})
	}
	return out
}

func period(start string, end *string, current bool) string {
	to := "Present"
	if !current && end != nil && *end != "" {
		to = *end
	}
	if start == "" {
		return to
	}
	return start + " - " + to
}

func (v view) sections() []Section {
	out := []Section{SectionHeader}
	if v.Summary != "" {
		out = append(out, SectionSummary)
	}
	if len(v.Experience) > 0 {
		out = append(out, SectionExperience)
	}
	if len(v.Education) > 0 {
		out = append(out, SectionEducation)
	}
	if len(v.Skills) > 0 {
		out = append(out, SectionSkills)
	}
	if len(v.Languages) > 0 {
		out = append(out, SectionLanguages)
	}
	if len(v.Certifications) > 0 {
		out = append(out, SectionCertifications)
	}
	return out
}
