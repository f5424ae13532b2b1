package main

import (
	"fmt"

	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/reviews"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var recalcCmd = &cobra.Command{
	Use:   "recalc-ratings",
	Short: "Recompute user ratings for every room that has site reviews",
	RunE:  runRecalc,
}

func runRecalc(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var roomIDs []uint
	err = db.WithContext(ctx).Model(&models.EscapeRoom{}).
		Where("user_reviews_count > 0 OR id IN (SELECT room_id FROM reviews WHERE is_manual AND deleted_at IS NULL)").
		Order("id").
		Pluck("id", &roomIDs).Error
	if err != nil {
		return fmt.Errorf("recalc-ratings: %w", err)
	}

	for _, id := range roomIDs {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return reviews.Recalculate(tx, id)
		})
		if err != nil {
			return err
		}
		logger.Debug("room recalculated", zap.Uint("room_id", id))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "recalculated %d rooms\n", len(roomIDs))
	return nil
}
