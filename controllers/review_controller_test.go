package controllers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/escape-finder/api-go/captcha"
	"github.com/escape-finder/api-go/events"
	"github.com/escape-finder/api-go/models"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReviewOrder(t *testing.T) {
	assert.Equal(t, "rating DESC, created_at DESC", reviewOrder("highest"))
	assert.Equal(t, "rating ASC, created_at DESC", reviewOrder("lowest"))
	assert.Equal(t, "helpful_count DESC, created_at DESC", reviewOrder("helpful"))
	assert.Equal(t, "created_at DESC, id DESC", reviewOrder("newest"))
	assert.Equal(t, "created_at DESC, id DESC", reviewOrder(""))
}

func TestCreateReviewRejectsBeforeSaving(t *testing.T) {
	rc := &ReviewController{Captcha: captcha.Noop{}, Log: zap.NewNop()}
	r := gin.New()
	r.POST("/rooms/:slug/reviews", asUser(3, models.RoleUser), rc.Create)
	path := "/rooms/the-vault-austin/reviews"
	body := "Loved every puzzle in this room."

	tests := []struct {
		name  string
		input gin.H
		want  string
	}{
		{"rating out of range", gin.H{"rating": 6, "body": body, "captchaToken": "t"}, ""},
		{"body too short", gin.H{"rating": 4, "body": "meh", "captchaToken": "t"}, ""},
		{"visit in the future", gin.H{"rating": 4, "body": body, "captchaToken": "t", "visitedAt": time.Now().Add(48 * time.Hour)}, "visitedAt cannot be in the future"},
		{"missing captcha", gin.H{"rating": 4, "body": body}, "CAPTCHA verification failed"},
		{"markup only body", gin.H{"rating": 4, "body": "<p></p><p></p><br><br>", "captchaToken": "t"}, "Review text is too short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, http.MethodPost, path, tt.input)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			if tt.want != "" {
				assert.Equal(t, tt.want, errorOf(t, rec))
			}
		})
	}
}

func TestReviewIDValidation(t *testing.T) {
	rc := &ReviewController{Log: zap.NewNop()}
	r := gin.New()
	r.POST("/reviews/:id/helpful", asUser(3, models.RoleUser), rc.ToggleHelpful)
	r.POST("/reviews/:id/report", asUser(3, models.RoleUser), rc.Report)
	r.DELETE("/reviews/:id", asUser(3, models.RoleUser), rc.Delete)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/reviews/abc/helpful", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/reviews/0/report", gin.H{"reason": "spam"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/reviews/4/report", gin.H{"reason": "boring"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodDelete, "/reviews/-1", nil).Code)
}

const reviewBody = "Loved every puzzle in this room."

func expectReviewRoomAndProfile(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT \* FROM "escape_rooms" WHERE slug = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name", "status"}).AddRow(3, "the-vault-austin", "The Vault", models.RoomStatusOpen))
	mock.ExpectQuery(`SELECT id, display_name FROM "profiles" WHERE "profiles"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "display_name"}).AddRow(3, "Sam"))
}

func expectRecalculate(mock sqlmock.Sqlmock, avg float64, count int) {
	mock.ExpectQuery(`SELECT COALESCE\(AVG\(rating\), 0\) AS avg, COUNT\(\*\) AS count FROM "reviews" WHERE \(room_id = \$1 AND is_manual = \$2\)`).
		WithArgs(3, true).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(avg, count))
	mock.ExpectExec(`UPDATE "escape_rooms" SET .*"user_rating"=\$\d+,"user_reviews_count"=\$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestCreateReviewRecalculatesRoom(t *testing.T) {
	db, mock := newMockDB(t)
	pub := &eventLog{}
	rc := NewReviewController(db, captcha.Noop{}, pub, nil, zap.NewNop())
	r := gin.New()
	r.POST("/rooms/:slug/reviews", asUser(3, models.RoleUser), rc.Create)

	expectReviewRoomAndProfile(mock)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "reviews" .* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	expectRecalculate(mock, 4.5, 2)
	mock.ExpectCommit()

	rec := do(r, http.MethodPost, "/rooms/the-vault-austin/reviews", gin.H{
		"rating": 5, "title": "<i>Great</i>", "body": reviewBody, "captchaToken": "t",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			ID         uint   `json:"ID"`
			AuthorName string `json:"authorName"`
			Title      string `json:"title"`
			IsOwn      bool   `json:"isOwn"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint(21), body.Data.ID)
	assert.Equal(t, "Sam", body.Data.AuthorName)
	assert.Equal(t, "Great", body.Data.Title)
	assert.True(t, body.Data.IsOwn)

	require.Equal(t, []string{events.QueueReviewCreated}, pub.queues())
	ev := pub.events[0].event.(events.ReviewCreated)
	assert.Equal(t, uint(21), ev.ReviewID)
	assert.Equal(t, uint(3), ev.RoomID)
	assert.Equal(t, 5, ev.Rating)
}

func TestCreateReviewDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	pub := &eventLog{}
	rc := NewReviewController(db, captcha.Noop{}, pub, nil, zap.NewNop())
	r := gin.New()
	r.POST("/rooms/:slug/reviews", asUser(3, models.RoleUser), rc.Create)

	expectReviewRoomAndProfile(mock)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "reviews"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_review_room_profile"})
	mock.ExpectRollback()

	rec := do(r, http.MethodPost, "/rooms/the-vault-austin/reviews", gin.H{"rating": 4, "body": reviewBody, "captchaToken": "t"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "You have already reviewed this room", errorOf(t, rec))
	assert.Empty(t, pub.events)
}

func TestToggleHelpfulAddsThenRemoves(t *testing.T) {
	db, mock := newMockDB(t)
	rc := NewReviewController(db, captcha.Noop{}, nil, nil, zap.NewNop())
	r := gin.New()
	r.POST("/reviews/:id/helpful", asUser(7, models.RoleUser), rc.ToggleHelpful)

	expectToggle := func(removed int64, count int) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "reviews" WHERE "reviews"\."id" = \$1 .*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "profile_id", "helpful_count"}).AddRow(8, 3, 5, 2))
		mock.ExpectExec(`DELETE FROM "review_votes" WHERE review_id = \$1 AND profile_id = \$2`).
			WithArgs(8, 7).
			WillReturnResult(sqlmock.NewResult(0, removed))
		if removed == 0 {
			mock.ExpectQuery(`INSERT INTO "review_votes" \("review_id","profile_id","created_at"\) VALUES \(\$1,\$2,\$3\) RETURNING "id"`).
				WithArgs(8, 7, sqlmock.AnyArg()).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(30))
		}
		mock.ExpectExec(`UPDATE "reviews" SET "helpful_count"=GREATEST\(helpful_count \+ \$1, 0\)`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT "helpful_count" FROM "reviews"`).
			WillReturnRows(sqlmock.NewRows([]string{"helpful_count"}).AddRow(count))
		mock.ExpectCommit()
	}

	expectToggle(0, 3)
	rec := do(r, http.MethodPost, "/reviews/8/helpful", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"helpful":true,"helpfulCount":3}`, string(mustField(t, rec.Body.Bytes(), "data")))

	expectToggle(1, 2)
	rec = do(r, http.MethodPost, "/reviews/8/helpful", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"helpful":false,"helpfulCount":2}`, string(mustField(t, rec.Body.Bytes(), "data")))
}

func TestToggleHelpfulOwnReview(t *testing.T) {
	db, mock := newMockDB(t)
	rc := NewReviewController(db, captcha.Noop{}, nil, nil, zap.NewNop())
	r := gin.New()
	r.POST("/reviews/:id/helpful", asUser(5, models.RoleUser), rc.ToggleHelpful)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "reviews" .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id"}).AddRow(8, 5))
	mock.ExpectRollback()

	rec := do(r, http.MethodPost, "/reviews/8/helpful", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You cannot vote on your own review", errorOf(t, rec))
}

func TestDeleteReviewPublishesRemoval(t *testing.T) {
	db, mock := newMockDB(t)
	pub := &eventLog{}
	rc := NewReviewController(db, captcha.Noop{}, pub, nil, zap.NewNop())
	r := gin.New()
	r.DELETE("/reviews/:id", asUser(5, models.RoleUser), rc.Delete)

	reviewRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "room_id", "profile_id", "rating", "is_manual"}).AddRow(8, 3, 5, 4, true)
	}
	mock.ExpectQuery(`SELECT \* FROM "reviews" WHERE "reviews"\."id" = \$1`).WillReturnRows(reviewRow())
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "reviews" WHERE "reviews"\."id" = \$1`).WillReturnRows(reviewRow())
	mock.ExpectExec(`DELETE FROM "review_votes" WHERE review_id = \$1`).
		WithArgs(8).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE "reviews" SET "deleted_at"=\$1 WHERE "reviews"\."id" = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectRecalculate(mock, 0, 0)
	mock.ExpectCommit()

	rec := do(r, http.MethodDelete, "/reviews/8", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Equal(t, []string{events.QueueReviewRemoved}, pub.queues())
	ev := pub.events[0].event.(events.ReviewRemoved)
	assert.Equal(t, uint(3), ev.RoomID)
	assert.Equal(t, uint(5), ev.RemovedBy)
	assert.Equal(t, "deleted", ev.Reason)
}
