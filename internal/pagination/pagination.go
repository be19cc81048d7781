package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Params struct {
	Page  int
	Limit int
}

// FromQuery reads page/limit, falling back to page 1 and DefaultLimit on
// anything missing or out of range.
func FromQuery(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}

	return Params{Page: page, Limit: limit}
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Scope is meant for db.Scopes(p.Scope).
func (p Params) Scope(db *gorm.DB) *gorm.DB {
	return db.Limit(p.Limit).Offset(p.Offset())
}
