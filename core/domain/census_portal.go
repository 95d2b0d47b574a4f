package domain

import "time"

// Portal is one CKAN instance under survey. Input fields come from the CSV
// source; the remaining fields are filled in by the pipeline stages.
type Portal struct {
	URL         string `json:"url" bson:"url"`
	Name        string `json:"name,omitempty" bson:"name,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`

	// Survey stage (CKAN Action API)
	Metadata *PortalMetadata `json:"metadata,omitempty" bson:"metadata,omitempty"`

	// Classify stage
	Classification *ClassificationResult `json:"classification,omitempty" bson:"classification,omitempty"`

	// Locate stage
	Location *PortalLocation `json:"location,omitempty" bson:"location,omitempty"`

	ProcessedAt time.Time `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
	Error       string    `json:"error,omitempty" bson:"error,omitempty"`
}

// PortalMetadata holds what the CKAN Action API reports about an instance.
type PortalMetadata struct {
	CKANVersion      string   `json:"ckan_version,omitempty" bson:"ckan_version,omitempty"`
	SiteTitle        string   `json:"site_title,omitempty" bson:"site_title,omitempty"`
	SiteDescription  string   `json:"site_description,omitempty" bson:"site_description,omitempty"`
	ContactEmail     string   `json:"contact_email,omitempty" bson:"contact_email,omitempty"`
	PrimaryLanguage  string   `json:"primary_language,omitempty" bson:"primary_language,omitempty"`
	Extensions       []string `json:"extensions,omitempty" bson:"extensions,omitempty"`
	NumGroups        int      `json:"num_groups" bson:"num_groups"`
	NumOrganizations int      `json:"num_organizations" bson:"num_organizations"`
	NumDatasets      int      `json:"num_datasets" bson:"num_datasets"`
}

// PortalLocation is the resolved geographic placement of a portal.
// Region is always a member of AllowedRegions.
type PortalLocation struct {
	Location string `json:"location,omitempty" bson:"location,omitempty"`
	Region   Region `json:"region" bson:"region"`
	Place    string `json:"place,omitempty" bson:"place,omitempty"`
	Country  string `json:"country,omitempty" bson:"country,omitempty"`
}
