// internal/domain/models/profile.go
package models

import "strings"

// ProfileData is the matrimonial profile embedded on a User.
// Every section and field is optional.
type ProfileData struct {
	Address *AddressData `bson:"address,omitempty" json:"address,omitempty"`
	Caste   *CasteData   `bson:"caste,omitempty" json:"caste,omitempty"`
	Marital *MaritalData `bson:"marital,omitempty" json:"marital,omitempty"`
}

type AddressData struct {
	Location        string `bson:"location,omitempty" json:"location,omitempty"`
	Pincode         string `bson:"pincode,omitempty" json:"pincode,omitempty"`
	GrewUpIn        string `bson:"grew_up_in,omitempty" json:"grew_up_in,omitempty"`
	ResidencyStatus string `bson:"residency_status,omitempty" json:"residency_status,omitempty"`
}

type CasteData struct {
	Caste                     string `bson:"caste,omitempty" json:"caste,omitempty"`
	Subcaste                  string `bson:"subcaste,omitempty" json:"subcaste,omitempty"`
	IsNotParticularAboutCaste bool   `bson:"is_not_particular_about_caste" json:"is_not_particular_about_caste"`
}

type MaritalData struct {
	MaritalStatus string `bson:"marital_status,omitempty" json:"marital_status,omitempty"`
	Height        string `bson:"height,omitempty" json:"height,omitempty"`
	Diet          string `bson:"diet,omitempty" json:"diet,omitempty"`
}

// ProfileChecklistSize is the number of items CompletionPercentage counts.
const ProfileChecklistSize = 9

// CompletionPercentage returns floor(filled/9*100) over the profile
// checklist. A nil profile, or a missing section, contributes nothing.
// Declaring no caste preference counts the same as naming a caste.
func (p *ProfileData) CompletionPercentage() int {
	if p == nil {
		return 0
	}

	filled := 0
	set := func(s string) {
		if strings.TrimSpace(s) != "" {
			filled++
		}
	}

	if a := p.Address; a != nil {
		set(a.Location)
		set(a.Pincode)
		set(a.GrewUpIn)
		set(a.ResidencyStatus)
	}
	if c := p.Caste; c != nil {
		if c.IsNotParticularAboutCaste || strings.TrimSpace(c.Caste) != "" {
			filled++
		}
		set(c.Subcaste)
	}
	if m := p.Marital; m != nil {
		set(m.MaritalStatus)
		set(m.Height)
		set(m.Diet)
	}

	return filled * 100 / ProfileChecklistSize
}
