package cv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyData_RoundTrip(t *testing.T) {
	empty := EmptyData()

	text, err := Encode(empty)
	require.NoError(t, err)

	assert.Equal(t, empty, Decode(text))
}

func TestEmptyData_ListsPresent(t *testing.T) {
	text, err := Encode(EmptyData())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"personalInfo": {"fullName":"","email":"","phone":"","location":"","website":"","linkedin":"","github":""},
		"experience": [],
		"education": [],
		"skills": [],
		"summary": "",
		"languages": [],
		"certifications": []
	}`, text)
}

func TestDecode_ToleratesCorruptText(t *testing.T) {
	for _, text := range []string{"", "{", "not json", "[1,2,3]", `{"skills": "oops"}`} {
		t.Run(text, func(t *testing.T) {
			assert.Equal(t, EmptyData(), Decode(text))
		})
	}
}

func TestDecode_FillsMissingLists(t *testing.T) {
	got := Decode(`{"personalInfo":{"fullName":"Ada"},"skills":[{"id":"s1","name":"Go","level":"expert"}]}`)

	assert.Equal(t, "Ada", got.PersonalInfo.FullName)
	assert.Equal(t, []Skill{{ID: "s1", Name: "Go", Level: LevelExpert}}, got.Skills)
	assert.NotNil(t, got.Experience)
	assert.NotNil(t, got.Languages)
	assert.NotNil(t, got.Certifications)
}

func TestDecodeStrict(t *testing.T) {
	_, err := DecodeStrict("{")
	assert.Error(t, err)

	d, err := DecodeStrict(`{"summary":"hi"}`)
	require.NoError(t, err)
	assert.Equal(t, "hi", d.Summary)
}

func TestHasMinimumData(t *testing.T) {
	assert.False(t, HasMinimumData(EmptyData()))

	d := EmptyData()
	d.Skills = append(d.Skills, Skill{ID: "1", Name: "Go"})
	assert.False(t, HasMinimumData(d))

	d.PersonalInfo.Email = "ada@example.com"
	assert.True(t, HasMinimumData(d))

	d = EmptyData()
	d.Education = append(d.Education, Education{ID: "e1"})
	assert.True(t, HasMinimumData(d))
}

func TestLevelRank(t *testing.T) {
	assert.Less(t, LevelBeginner.Rank(), LevelIntermediate.Rank())
	assert.Less(t, LevelIntermediate.Rank(), LevelAdvanced.Rank())
	assert.Less(t, LevelAdvanced.Rank(), LevelExpert.Rank())
	assert.Zero(t, Level("guru").Rank())
}
