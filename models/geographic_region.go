package models

const (
	RegionCountry = "country"
	RegionState   = "state"
	RegionCity    = "city"
)

type GeographicRegion struct {
	ID          uint     `json:"id" gorm:"primaryKey;autoIncrement"`
	Level       string   `json:"level" gorm:"not null;index;check:level in ('country','state','city')"`
	CountryCode string   `json:"countryCode" gorm:"not null;type:varchar(2)"`
	StateCode   string   `json:"stateCode" gorm:"type:varchar(2)"`
	Name        string   `json:"name" gorm:"not null"`
	Slug        string   `json:"slug" gorm:"not null;index"`
	ParentID    *uint    `json:"parentId" gorm:"index"`
	Description string   `json:"description" gorm:"type:text"`
	Latitude    *float64 `json:"latitude" gorm:"type:decimal(10,8)"`
	Longitude   *float64 `json:"longitude" gorm:"type:decimal(11,8)"`
}
