package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReportArchive is the persisted record of a completed research run.
type ReportArchive struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId         string         `gorm:"type:text;not null;uniqueIndex"`
	Variant           string         `gorm:"type:text;not null"`
	Query             string         `gorm:"type:text;not null"`
	ShortSummary      string         `gorm:"type:text;not null"`
	MarkdownReport    string         `gorm:"type:text;not null"`
	FollowUpQuestions datatypes.JSON `gorm:"type:jsonb"`
	Verified          *bool          `gorm:""` // Null when the variant has no verify stage
	Issues            string         `gorm:"type:text"`
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
}

func (ReportArchive) TableName() string {
	return "report_archives"
}
