package db

import (
	"context"
	"time"

	"github.com/naseer2426/wa-brain/internal/brain"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var journalLog = logrus.WithField("component", "journal")

const writeTimeout = 2 * time.Second

// Interaction is one handled message.
type Interaction struct {
	ID        uint   `gorm:"primaryKey"`
	RequestID string `gorm:"size:64;index"`
	Kind      string `gorm:"size:16"`
	Source    string `gorm:"size:128"`
	Outcome   string `gorm:"size:16;index"`
	LatencyMS int64
	Error     string
	CreatedAt time.Time
}

var _ brain.Recorder = &Journal{}

// Journal persists brain events. Writes are best effort.
type Journal struct {
	db *gorm.DB
}

func NewJournal(database *gorm.DB) *Journal {
	return &Journal{db: database}
}

func (j *Journal) Record(ctx context.Context, ev brain.Event) {
	// Writes survive a client hangup.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	row := toInteraction(ev)
	if err := j.db.WithContext(ctx).Create(&row).Error; err != nil {
		journalLog.WithField("request_id", ev.RequestID).Warnf("failed to journal interaction: %v", err)
	}
}

func toInteraction(ev brain.Event) Interaction {
	return Interaction{
		RequestID: ev.RequestID,
		Kind:      string(ev.Kind),
		Source:    ev.Source,
		Outcome:   string(ev.Outcome),
		LatencyMS: ev.Latency.Milliseconds(),
		Error:     ev.Err,
	}
}
