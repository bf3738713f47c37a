package models

import "time"

// ProfileStatus is the persisted acquisition state of a profile
type ProfileStatus string

const (
	ProfileStatusTodo       ProfileStatus = "TODO"
	ProfileStatusInProgress ProfileStatus = "IN_PROGRESS"
	ProfileStatusError      ProfileStatus = "ERROR"
	ProfileStatusCancelled  ProfileStatus = "CANCELLED"
	ProfileStatusScrapped   ProfileStatus = "SCRAPPED"
	ProfileStatusNotFound   ProfileStatus = "NOT_FOUND"
)

// Valid reports whether s is one of the known statuses
func (s ProfileStatus) Valid() bool {
	switch s {
	case ProfileStatusTodo, ProfileStatusInProgress, ProfileStatusError,
		ProfileStatusCancelled, ProfileStatusScrapped, ProfileStatusNotFound:
		return true
	}
	return false
}

// Terminal reports whether no further acquisition is expected from this status.
// ERROR is re-attemptable and therefore not terminal.
func (s ProfileStatus) Terminal() bool {
	return s == ProfileStatusScrapped || s == ProfileStatusNotFound || s == ProfileStatusCancelled
}

// ProfileRecord is the structured snapshot extracted from one rendered profile page
type ProfileRecord struct {
	ProfileID        string          `json:"profile_id"`
	ProfileURL       string          `json:"profile_url"`
	FullName         string          `json:"fullname"`
	Title            string          `json:"title"`
	Categories       []string        `json:"categories"`
	DailyRate        string          `json:"daily_rate,omitempty"`
	ResponseRate     string          `json:"response_rate,omitempty"`
	ExperienceLevel  string          `json:"experience_years,omitempty"`
	ImageURL         string          `json:"image_url,omitempty"`
	Location         string          `json:"location,omitempty"`
	WorkLocations    []string        `json:"work_locations"`
	TopSkills        []string        `json:"top_skills"`
	Skills           []string        `json:"skills"`
	ExpertiseDomains []string        `json:"expertise_domains"`
	Languages        []Language      `json:"languages"`
	Availability     *bool           `json:"availability"`
	MissionsCount    int             `json:"missions_count"`
	Description      string          `json:"description,omitempty"`
	Education        []Education     `json:"education"`
	Experience       []Experience    `json:"experience"`
	Certifications   []Certification `json:"certifications"`
}

// Language is a spoken language with an optional proficiency level
type Language struct {
	Name  string  `json:"name"`
	Level *string `json:"level"`
}

// Education entry; at least one field is non-empty
type Education struct {
	Degree string `json:"degree"`
	School string `json:"school"`
	Year   string `json:"year"`
}

// Key is the composite dedup key degree|school|year
func (e Education) Key() string {
	return e.Degree + "|" + e.School + "|" + e.Year
}

// Experience is one work-history entry
type Experience struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Period      string `json:"period"`
	Description string `json:"description"`
}

// Certification carries only a name; date and description are never extracted
type Certification struct {
	Name        string  `json:"name"`
	Date        *string `json:"date"`
	Description *string `json:"description"`
}

// Profile is the persisted row for one external profile identifier
type Profile struct {
	ID            string         `json:"id"`
	ProfileID     string         `json:"profile_id"`
	ProfileURL    string         `json:"profile_url"`
	Status        ProfileStatus  `json:"status"`
	Record        *ProfileRecord `json:"record,omitempty"`
	LastScrapedAt *time.Time     `json:"last_scraped_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
