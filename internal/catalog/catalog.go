// Package catalog defines the static, ordered set of onboarding sections.
//
// The catalog is read-only configuration shared by all sessions; its ordering
// is fixed for the lifetime of a conversation.
package catalog

import (
	"fmt"

	"github.com/iamanos/onboard/internal/models"
)

// Catalog is an ordered, immutable list of onboarding sections.
type Catalog struct {
	sections []models.Section
}

// New builds a catalog from the given sections, validating that section IDs
// are unique and that field names are unique within each section.
func New(sections ...models.Section) (*Catalog, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("catalog requires at least one section")
	}
	seenIDs := make(map[string]bool, len(sections))
	for _, sec := range sections {
		if sec.ID == "" {
			return nil, fmt.Errorf("section with empty ID")
		}
		if seenIDs[sec.ID] {
			return nil, fmt.Errorf("duplicate section ID %q", sec.ID)
		}
		seenIDs[sec.ID] = true

		seenFields := make(map[string]bool, len(sec.Fields))
		for _, field := range sec.Fields {
			if seenFields[field] {
				return nil, fmt.Errorf("duplicate field %q in section %q", field, sec.ID)
			}
			seenFields[field] = true
		}
	}
	// Copy to keep the catalog immutable against caller mutation.
	own := make([]models.Section, len(sections))
	copy(own, sections)
	return &Catalog{sections: own}, nil
}

// Len returns the number of sections.
func (c *Catalog) Len() int {
	return len(c.sections)
}

// At returns the section at the given cursor position.
func (c *Catalog) At(i int) (models.Section, error) {
	if i < 0 || i >= len(c.sections) {
		return models.Section{}, fmt.Errorf("section index %d out of range [0,%d)", i, len(c.sections))
	}
	return c.sections[i], nil
}

// IsLast reports whether the cursor position is the final section.
func (c *Catalog) IsLast(i int) bool {
	return i == len(c.sections)-1
}

// Sections returns a copy of the ordered section list.
func (c *Catalog) Sections() []models.Section {
	out := make([]models.Section, len(c.sections))
	copy(out, c.sections)
	return out
}

// Default returns the production onboarding catalog: the five data-collection
// sections a provider completes after the registration form.
func Default() *Catalog {
	c, err := New(
		models.Section{
			ID:          "personal-documents",
			Title:       "Personal Documents",
			Description: "Profile photo, government ID, and background check certificate",
			Fields:      []string{"profilePhoto", "idDocument", "backgroundCheck"},
		},
		models.Section{
			ID:          "personal-info",
			Title:       "Personal Information",
			Description: "Address and personal details",
			Fields:      []string{"idNumber", "state", "city", "postalCode", "district", "street", "number", "complement"},
		},
		models.Section{
			ID:          "service-region",
			Title:       "Service Region",
			Description: "Where you want to work and your service categories",
			Fields:      []string{"serviceState", "serviceCity", "categories"},
		},
		models.Section{
			ID:          "experience",
			Title:       "Experience",
			Description: "Certificates and professional references",
			Fields:      []string{"certificates", "references"},
		},
		models.Section{
			ID:          "billing",
			Title:       "Billing Details",
			Description: "Banking and payout information",
			Fields:      []string{"taxID", "businessName", "accountType", "bankName", "branch", "accountNumber", "accountHolder", "holderDocument"},
		},
	)
	if err != nil {
		// The default catalog is static; a validation failure here is a
		// programming error caught by tests.
		panic(err)
	}
	return c
}
