package reviews

import (
	"fmt"

	"github.com/escape-finder/api-go/models"
	"gorm.io/gorm"
)

type aggregate struct {
	Avg   float64
	Count int64
}

// Recalculate refreshes user_rating and user_reviews_count on the room from
// its manual reviews. It must run in the transaction that changed the reviews.
func Recalculate(tx *gorm.DB, roomID uint) error {
	const op = "reviews.Recalculate"

	var agg aggregate
	err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("room_id = ? AND is_manual = ?", roomID, true).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = tx.Model(&models.EscapeRoom{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"user_rating":        round(agg.Avg, 2),
			"user_reviews_count": agg.Count,
		}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ForRoom loads every rating left on a room, seeded and manual alike.
func ForRoom(db *gorm.DB, roomID uint) ([]int, error) {
	var ratings []int
	if err := db.Model(&models.Review{}).Where("room_id = ?", roomID).Pluck("rating", &ratings).Error; err != nil {
		return nil, fmt.Errorf("reviews.ForRoom: %w", err)
	}
	return ratings, nil
}

// RoomRating is the combined rating figure for a room.
func RoomRating(room *models.EscapeRoom) (float64, int) {
	return Combine(room.Rating, room.ReviewsCount, room.UserRating, room.UserReviewsCount)
}
