package audience

import (
	"errors"

	"github.com/ignite/influencer-analytics/internal/domain"
)

// ErrUnknownBrand is returned when no profile exists for the requested brand.
var ErrUnknownBrand = errors.New("unknown brand")

// BrandProfile is the target customer of a brand.
type BrandProfile struct {
	Brand             domain.Brand       `json:"brand" yaml:"brand"`
	Name              string             `json:"name" yaml:"name"`
	TargetAgeRange    string             `json:"target_age_range" yaml:"target_age_range"`
	TargetGenderSplit domain.GenderSplit `json:"target_gender_split" yaml:"target_gender_split"`
	TargetLocations   []string           `json:"target_locations" yaml:"target_locations"`
	TargetInterests   []string           `json:"target_interests" yaml:"target_interests"`
}

// DefaultBrandProfiles returns the built-in brand table.
func DefaultBrandProfiles() map[domain.Brand]BrandProfile {
	return map[domain.Brand]BrandProfile{
		"vitalfuel": {
			Brand:             "vitalfuel",
			Name:              "VitalFuel",
			TargetAgeRange:    "25-34",
			TargetGenderSplit: domain.GenderSplit{Male: 45, Female: 55},
			TargetLocations:   []string{"US", "CA", "UK", "AU"},
			TargetInterests:   []string{"fitness", "nutrition", "supplements", "workout", "protein"},
		},
		"greenroots": {
			Brand:             "greenroots",
			Name:              "GreenRoots",
			TargetAgeRange:    "25-34",
			TargetGenderSplit: domain.GenderSplit{Male: 30, Female: 70},
			TargetLocations:   []string{"US", "CA", "UK"},
			TargetInterests:   []string{"nutrition", "healthy eating", "wellness", "diet", "health"},
		},
		"ironcore": {
			Brand:             "ironcore",
			Name:              "IronCore",
			TargetAgeRange:    "18-24",
			TargetGenderSplit: domain.GenderSplit{Male: 75, Female: 25},
			TargetLocations:   []string{"US", "UK", "DE", "AU"},
			TargetInterests:   []string{"bodybuilding", "strength", "muscle", "gym", "protein"},
		},
		"puremind": {
			Brand:             "puremind",
			Name:              "PureMind",
			TargetAgeRange:    "25-34",
			TargetGenderSplit: domain.GenderSplit{Male: 25, Female: 75},
			TargetLocations:   []string{"US", "CA", "UK", "AU"},
			TargetInterests:   []string{"wellness", "mindfulness", "yoga", "self-care", "meditation"},
		},
	}
}

// categoryKeywords maps a content category to the interest keywords its
// audience is assumed to share.
var categoryKeywords = map[domain.Category][]string{
	domain.CategoryFitness:      {"fitness", "workout", "gym", "exercise", "training"},
	domain.CategoryNutrition:    {"nutrition", "healthy eating", "supplements", "diet", "protein"},
	domain.CategoryWellness:     {"wellness", "mindfulness", "yoga", "self-care", "health"},
	domain.CategoryBodybuilding: {"bodybuilding", "muscle", "protein", "strength", "gym"},
}

// CategoryKeywords returns a copy of the keyword set for a category.
func CategoryKeywords(c domain.Category) []string {
	return append([]string(nil), categoryKeywords[c]...)
}
