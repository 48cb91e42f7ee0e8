package httpapi

import (
	"github.com/dmitrijs2005/bookkeeper/internal/validator"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records"`
}

func validatePaging(v *validator.Validator, page, limit int) {
	v.Check(page >= 1, "page", "must be greater than zero")
	v.Check(page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(validator.Between(limit, 1, maxLimit), "limit", "must be between 1 and 100")
}

// calculateMetadata describes the page window; an empty result set carries
// only the zero total.
func calculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}

	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     (totalRecords + pageSize - 1) / pageSize,
		TotalRecords: totalRecords,
	}
}
