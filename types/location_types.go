package types

import (
	"github.com/escape-finder/api-go/location"
	"github.com/escape-finder/api-go/seo"
)

type CountrySummary struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Rooms  int64  `json:"rooms"`
	States int    `json:"states"`
}

type StatesResponse struct {
	Country CountrySummary        `json:"country"`
	States  []location.StateStats `json:"states"`
	Meta    seo.Meta              `json:"meta"`
}

type CitiesResponse struct {
	State       location.StateStats  `json:"state"`
	Cities      []location.CityStats `json:"cities"`
	Description string               `json:"description,omitempty"`
	Redirect    string               `json:"redirect,omitempty"`
	Meta        seo.Meta             `json:"meta"`
}

type VenueSummary struct {
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	Address   string  `json:"address,omitempty"`
	Rooms     int64   `json:"rooms"`
	AvgRating float64 `json:"avgRating"`
}

type CityResponse struct {
	State    location.State     `json:"state"`
	City     location.CityStats `json:"city"`
	Venues   []VenueSummary     `json:"venues"`
	Rooms    []RoomCard         `json:"rooms"`
	Redirect string             `json:"redirect,omitempty"`
	Meta     seo.Meta           `json:"meta"`
}

// VenueResponse carries Redirect when the URL segment only matched fuzzily;
// the front end should redirect to the canonical slug.
type VenueResponse struct {
	State      location.State `json:"state"`
	City       string         `json:"city"`
	CitySlug   string         `json:"citySlug"`
	Venue      VenueSummary   `json:"venue"`
	Rooms      []RoomCard     `json:"rooms"`
	Redirect   string         `json:"redirect,omitempty"`
	MatchScore float64        `json:"matchScore"`
	Meta       seo.Meta       `json:"meta"`
}
