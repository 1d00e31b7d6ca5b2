package cv

import (
	"encoding/json"
	"fmt"
)

// Level is the ordinal proficiency scale shared by skills and languages.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelExpert       Level = "expert"
)

// Rank orders levels; unknown or empty levels rank 0.
func (l Level) Rank() int {
	switch l {
	case LevelBeginner:
		return 1
	case LevelIntermediate:
		return 2
	case LevelAdvanced:
		return 3
	case LevelExpert:
		return 4
	default:
		return 0
	}
}

// Data is the authored CV content stored as JSON text in the cvs.data column.
type Data struct {
	PersonalInfo   PersonalInfo    `json:"personalInfo"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Skills         []Skill         `json:"skills"`
	Summary        string          `json:"summary"`
	Languages      []Skill         `json:"languages"`
	Certifications []Certification `json:"certifications"`
}

type PersonalInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Website  string `json:"website"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}

type Experience struct {
	ID          string  `json:"id"`
	Company     string  `json:"company"`
	Position    string  `json:"position"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Description string  `json:"description"`
	Current     bool    `json:"current"`
}

type Education struct {
	ID          string  `json:"id"`
	Institution string  `json:"institution"`
	Degree      string  `json:"degree"`
	Field       string  `json:"field"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Current     bool    `json:"current"`
}

// Skill doubles as the language entry shape.
type Skill struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level Level  `json:"level,omitempty"`
}

type Certification struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

// EmptyData returns the canonical shape of a fresh CV: every field present,
// every list empty.
func EmptyData() Data {
	return Data{
		PersonalInfo:   PersonalInfo{},
		Experience:     []Experience{},
		Education:      []Education{},
		Skills:         []Skill{},
		Summary:        "",
		Languages:      []Skill{},
		Certifications: []Certification{},
	}
}

// Normalize replaces nil lists with empty ones so the JSON form never carries null arrays.
func (d Data) Normalize() Data {
	if d.Experience == nil {
		d.Experience = []Experience{}
	}
	if d.Education == nil {
		d.Education = []Education{}
	}
	if d.Skills == nil {
		d.Skills = []Skill{}
	}
	if d.Languages == nil {
		d.Languages = []Skill{}
	}
	if d.Certifications == nil {
		d.Certifications = []Certification{}
	}
	return d
}

// Encode serializes data into the text stored in the database.
func Encode(d Data) (string, error) {
	b, err := json.Marshal(d.Normalize())
	if err != nil {
		return "", fmt.Errorf("encode cv data: %w", err)
	}
	return string(b), nil
}

// Decode parses stored text. Corrupt or non-object text yields EmptyData.
func Decode(text string) Data {
	var d Data
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return EmptyData()
	}
	return d.Normalize()
}

// DecodeStrict is Decode without the fallback, for callers that must report the failure.
func DecodeStrict(text string) (Data, error) {
	var d Data
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return Data{}, fmt.Errorf("decode cv data: %w", err)
	}
	return d.Normalize(), nil
}

// HasMinimumData reports whether there is anything worth rendering.
func HasMinimumData(d Data) bool {
	return d.PersonalInfo.FullName != "" ||
		d.PersonalInfo.Email != "" ||
		len(d.Experience) > 0 ||
		len(d.Education) > 0
}
