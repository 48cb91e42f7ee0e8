package httpapi

import (
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

type bookResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description *string   `json:"description,omitempty"`
	ISBN        *string   `json:"isbn,omitempty"`
	Categories  []string  `json:"categories"`
	Status      string    `json:"status"`
	BorrowedBy  *string   `json:"borrowed_by,omitempty"`
	HasCover    bool      `json:"has_cover"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
}

func newBookResponse(b *models.Book) bookResponse {
	cats := make([]string, 0, len(b.Categories))
	for _, c := range b.Categories {
		cats = append(cats, string(c))
	}
	return bookResponse{
		ID:          b.ID,
		Title:       string(b.Title),
		Author:      string(b.Author),
		Description: b.Description,
		ISBN:        b.ISBN,
		Categories:  cats,
		Status:      string(b.Status),
		BorrowedBy:  b.BorrowedBy,
		HasCover:    b.CoverKey != nil,
		Version:     b.Version,
		CreatedAt:   b.CreatedAt,
	}
}

func newBookResponses(bs []*models.Book) []bookResponse {
	out := make([]bookResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, newBookResponse(b))
	}
	return out
}

// userResponse never carries the password hash.
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      string(u.Name),
		Email:     string(u.Email),
		Role:      string(u.Role()),
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

func newUserResponses(us []*models.User) []userResponse {
	out := make([]userResponse, 0, len(us))
	for _, u := range us {
		out = append(out, newUserResponse(u))
	}
	return out
}
