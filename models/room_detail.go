package models

import "time"

type RoomAmenity struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	RoomID    uint      `json:"roomId" gorm:"not null;uniqueIndex:idx_room_amenity"`
	Amenity   string    `json:"amenity" gorm:"not null;uniqueIndex:idx_room_amenity"`
	CreatedAt time.Time `json:"createdAt"`
}

// BusinessHours is one structured day row. DayOfWeek follows time.Weekday (0 = Sunday).
type BusinessHours struct {
	ID        uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	RoomID    uint   `json:"roomId" gorm:"not null;uniqueIndex:idx_room_day"`
	DayOfWeek int    `json:"dayOfWeek" gorm:"not null;uniqueIndex:idx_room_day;check:day_of_week between 0 and 6"`
	OpenTime  string `json:"openTime" gorm:"type:varchar(5)"`
	CloseTime string `json:"closeTime" gorm:"type:varchar(5)"`
	IsClosed  bool   `json:"isClosed" gorm:"default:false"`
}

func (BusinessHours) TableName() string {
	return "business_hours"
}
