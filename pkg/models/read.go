package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ReadStatusReading   = "Reading"
	ReadStatusCompleted = "Completed"
	ReadStatusAbandoned = "Abandoned"
)

var ReadStatuses = []string{ReadStatusReading, ReadStatusCompleted, ReadStatusAbandoned}

func IsValidReadStatus(status string) bool {
	for _, s := range ReadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Read is one pass through a book. A book has at most one read with status
// Reading at any time.
type Read struct {
	bun.BaseModel `bun:"table:reads,alias:r"`

	ID         int        `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	BookID     int        `bun:",notnull" json:"book_id"`
	Book       *Book      `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	StartDate  *time.Time `json:"start_date"`
	FinishDate *time.Time `json:"finish_date"`
	Status     string     `bun:",notnull" json:"status"`
}
