package textfix

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Target is a table and the free-text columns that may hold mojibake.
type Target struct {
	Table   string
	Columns []string
}

// Targets lists every column imported from scraped sources.
var Targets = []Target{
	{Table: "escape_rooms", Columns: []string{"name", "venue_name", "description", "address", "city"}},
	{Table: "reviews", Columns: []string{"author_name", "title", "body"}},
	{Table: "pending_listings", Columns: []string{"name", "venue_name", "description", "address", "city"}},
}

// Report counts what a repair run saw and changed.
type Report struct {
	Table   string `json:"table"`
	Scanned int    `json:"scanned"`
	Changed int    `json:"changed"`
}

// Repair walks t in id order, batchSize rows at a time, and rewrites every
// column Fix changes. With dryRun set it only counts.
func Repair(ctx context.Context, db *gorm.DB, t Target, batchSize int, dryRun bool, log *zap.Logger) (Report, error) {
	const op = "textfix.Repair"
	if batchSize <= 0 {
		batchSize = 500
	}
	rep := Report{Table: t.Table}
	cols := append([]string{"id"}, t.Columns...)

	var lastID uint64
	for {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("%s: %w", op, err)
		}
		var rows []map[string]interface{}
		err := db.WithContext(ctx).Table(t.Table).Select(cols).
			Where("id > ?", lastID).Order("id").Limit(batchSize).
			Find(&rows).Error
		if err != nil {
			return rep, fmt.Errorf("%s: %s: %w", op, t.Table, err)
		}
		if len(rows) == 0 {
			return rep, nil
		}

		for _, row := range rows {
			id, ok := toID(row["id"])
			if !ok {
				return rep, fmt.Errorf("%s: %s: unexpected id %v", op, t.Table, row["id"])
			}
			lastID = id
			rep.Scanned++

			updates := fixRow(row, t.Columns)
			if len(updates) == 0 {
				continue
			}
			rep.Changed++
			log.Debug("repairing row", zap.String("table", t.Table), zap.Uint64("id", id), zap.Int("columns", len(updates)))
			if dryRun {
				continue
			}
			if err := db.WithContext(ctx).Table(t.Table).Where("id = ?", id).Updates(updates).Error; err != nil {
				return rep, fmt.Errorf("%s: %s %d: %w", op, t.Table, id, err)
			}
		}

		if len(rows) < batchSize {
			return rep, nil
		}
	}
}

func fixRow(row map[string]interface{}, columns []string) map[string]interface{} {
	updates := map[string]interface{}{}
	for _, col := range columns {
		var s string
		switch v := row[col].(type) {
		case string:
			s = v
		case []byte:
			s = string(v)
		default:
			continue
		}
		if fixed, ok := Changed(s); ok {
			updates[col] = fixed
		}
	}
	return updates
}

func toID(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case int64:
		return uint64(n), n >= 0
	case int32:
		return uint64(n), n >= 0
	case int:
		return uint64(n), n >= 0
	case uint64:
		return n, true
	case uint32:
		return uint64(n), true
	case uint:
		return uint64(n), true
	}
	return 0, false
}
