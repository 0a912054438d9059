package models

import (
	"sort"
	"strings"
)

// LevelProfile carries the per-school-level vocabulary used to validate drafts.
// Empty lists accept any value.
type LevelProfile struct {
	Name           string    `json:"name"`
	Grades         []string  `json:"grades"`
	ClassOptions   []string  `json:"classOptions"`
	Fields         []string  `json:"fields"`
	TeachingGroups []string  `json:"teachingGroups"`
	Slots          SlotTable `json:"slots"`
}

var sectionLetters = []string{"A", "B", "C", "D", "E", "F"}

var builtinProfiles = map[string]LevelProfile{
	"elementary": {
		Name:           "elementary",
		Grades:         []string{"1", "2", "3", "4", "5", "6"},
		ClassOptions:   sectionLetters,
		TeachingGroups: []string{"General", "Arts", "Physical Education", "Religious Studies"},
	},
	"middle": {
		Name:           "middle",
		Grades:         []string{"7", "8", "9"},
		ClassOptions:   sectionLetters,
		TeachingGroups: []string{"General", "Mathematics", "Sciences", "Languages", "Arts", "Physical Education"},
	},
	"high": {
		Name:           "high",
		Grades:         []string{"10", "11", "12"},
		ClassOptions:   sectionLetters,
		Fields:         []string{"Mathematics", "Natural Sciences", "Humanities"},
		TeachingGroups: []string{"General", "Mathematics", "Natural Sciences", "Humanities", "Languages", "Physical Education"},
	},
	"vocational": {
		Name:           "vocational",
		Grades:         []string{"10", "11", "12"},
		ClassOptions:   sectionLetters,
		Fields:         []string{"Electronics", "Electrotechnics", "Mechanics", "Computer", "Accounting"},
		TeachingGroups: []string{"General", "Electronics", "Electrotechnics", "Mechanics", "Computer", "Accounting"},
	},
}

// LevelProfileFor returns the built-in profile with the given name.
func LevelProfileFor(name string) (LevelProfile, bool) {
	profile, ok := builtinProfiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return LevelProfile{}, false
	}
	return profile.withDefaults(), true
}

// LevelNames lists the built-in profile names.
func LevelNames() []string {
	names := make([]string, 0, len(builtinProfiles))
	for name := range builtinProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p LevelProfile) withDefaults() LevelProfile {
	if len(p.Slots) == 0 {
		p.Slots = DefaultSlots
	}
	return p
}

// SlotTable returns the profile's periods, falling back to DefaultSlots.
func (p LevelProfile) SlotTable() SlotTable {
	return p.withDefaults().Slots
}

func (p LevelProfile) HasGrade(v string) bool         { return allows(p.Grades, v) }
func (p LevelProfile) HasClassOption(v string) bool   { return allows(p.ClassOptions, v) }
func (p LevelProfile) HasField(v string) bool         { return allows(p.Fields, v) }
func (p LevelProfile) HasTeachingGroup(v string) bool { return allows(p.TeachingGroups, v) }

// RequiresField reports whether class identities at this level carry a field.
func (p LevelProfile) RequiresField() bool { return len(p.Fields) > 0 }

func allows(options []string, v string) bool {
	if len(options) == 0 {
		return true
	}
	for _, option := range options {
		if option == v {
			return true
		}
	}
	return false
}
