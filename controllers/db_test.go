package controllers

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB opens gorm's postgres dialector over sqlmock. Queries are matched
// as regular expressions and every expectation must be met by the end of the
// test.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return db, mock
}

type publishedEvent struct {
	queue string
	event interface{}
}

// eventLog records what handlers publish after a commit.
type eventLog struct {
	events []publishedEvent
}

func (l *eventLog) Publish(_ context.Context, queue string, event interface{}) error {
	l.events = append(l.events, publishedEvent{queue: queue, event: event})
	return nil
}

func (l *eventLog) queues() []string {
	out := make([]string, len(l.events))
	for i, e := range l.events {
		out[i] = e.queue
	}
	return out
}
