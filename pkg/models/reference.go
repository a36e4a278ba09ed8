package models

import (
	"math"

	"github.com/uptrace/bun"
)

type Format struct {
	bun.BaseModel `bun:"table:formats,alias:f"`

	ID   int    `bun:",pk,nullzero" json:"id"`
	Name string `bun:",notnull,unique" json:"name"`
}

type Gender struct {
	bun.BaseModel `bun:"table:genders,alias:g"`

	ID   int    `bun:",pk,nullzero" json:"id"`
	Name string `bun:",notnull,unique" json:"name"`
}

const MaxRating = 5

// ValidRating reports whether r is between 0 and 5 in quarter steps.
func ValidRating(r float64) bool {
	if math.IsNaN(r) || r < 0 || r > MaxRating {
		return false
	}
	q := r * 4
	return q == math.Trunc(q)
}
