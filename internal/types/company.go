// Package types provides type definitions for structured data used throughout the hiring-signal system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Location is the geocoded position of a company.
type Location struct {
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon     float64 `json:"lon" validate:"gte=-180,lte=180"`
	Address string  `json:"address,omitempty"`
}

// CompanyRecord is an immutable input record produced by upstream ingestion.
type CompanyRecord struct {
	BusinessID    string   `json:"business_id" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	Website       string   `json:"website,omitempty"`
	PlacesWebsite string   `json:"places_website,omitempty"`
	Location      Location `json:"location"`
}

// Validate validates the CompanyRecord using the validator.
func (c *CompanyRecord) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// WebsiteSource records which rung of the resolver ladder produced a website.
type WebsiteSource string

const (
	// SourceUser is a website supplied with the company record
	SourceUser WebsiteSource = "user"
	// SourcePlaces is a website supplied by the location service
	SourcePlaces WebsiteSource = "places"
	// SourceInferredSearch is a website found by an opt-in lookup
	SourceInferredSearch WebsiteSource = "inferred_search"
	// SourceUnknown means no website could be resolved
	SourceUnknown WebsiteSource = "unknown"
)

// ResolvedWebsite is the single trusted website for a company plus provenance.
type ResolvedWebsite struct {
	URL    string        `json:"url,omitempty"`
	Source WebsiteSource `json:"source" validate:"required,oneof=user places inferred_search unknown"`
	Notes  string        `json:"notes,omitempty"`
}

// Err returns ErrResolutionAmbiguous when no website was resolved.
func (r ResolvedWebsite) Err() error {
	if r.URL == "" {
		return ErrResolutionAmbiguous
	}
	return nil
}

// Validate checks the ResolvedWebsite invariants.
func (r *ResolvedWebsite) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.URL == "" && r.Source != SourceUnknown {
		return fmt.Errorf("resolved website without url must have source %q, got %q", SourceUnknown, r.Source)
	}
	if r.URL != "" && r.Source == SourceUnknown {
		return fmt.Errorf("resolved website with url %q cannot have source %q", r.URL, SourceUnknown)
	}
	return nil
}
