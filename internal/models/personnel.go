package models

import "time"

// PersonnelCodeLength is the fixed number of digits in a personnel code.
const PersonnelCodeLength = 8

// PersonnelIdentity is a staff member known to the directory.
type PersonnelIdentity struct {
	ID               string    `json:"id"`
	PersonnelCode    string    `json:"personnelCode" validate:"required,personnelcode"`
	FullName         string    `json:"fullName" validate:"max=200"`
	MainPosition     string    `json:"mainPosition,omitempty" validate:"max=100"`
	EmploymentStatus string    `json:"employmentStatus,omitempty" validate:"max=50"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ValidPersonnelCode reports whether code is exactly eight ASCII digits.
func ValidPersonnelCode(code string) bool {
	if len(code) != PersonnelCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
