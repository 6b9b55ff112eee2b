package broker

import (
	"context"
	"time"

	"github.com/staffhubhq/staffhub/pkg/db"
	"gorm.io/gorm"
)

// ProcessedEvent records an envelope ID the consumer has applied. Marking
// happens after processing and before ack, so a crash in between causes a
// redelivery that the mark absorbs instead of a duplicate apply.
type ProcessedEvent struct {
	EventID     string    `gorm:"primaryKey;type:text"`
	ProcessedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ProcessedEvent) TableName() string { return "processed_events" }

// DedupeStore tracks processed envelope IDs in the consumer's database.
type DedupeStore struct {
	db *gorm.DB
}

func NewDedupeStore(gdb *gorm.DB) (*DedupeStore, error) {
	if err := gdb.AutoMigrate(&ProcessedEvent{}); err != nil {
		return nil, err
	}
	return &DedupeStore{db: gdb}, nil
}

// Seen reports whether the envelope ID was already applied.
func (s *DedupeStore) Seen(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&ProcessedEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

// Mark records the envelope ID. A concurrent duplicate insert is not an
// error.
func (s *DedupeStore) Mark(ctx context.Context, eventID string) error {
	err := s.db.WithContext(ctx).Create(&ProcessedEvent{
		EventID:     eventID,
		ProcessedAt: time.Now().UTC(),
	}).Error
	if err != nil && db.IsDuplicateKeyErr(err) {
		return nil
	}
	return err
}
