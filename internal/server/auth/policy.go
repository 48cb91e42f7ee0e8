// Package auth issues and verifies access tokens and holds the
// authorization rules the HTTP layer checks before every mutating call.
//
// The rules are plain functions of the caller's Identity and the target.
// They are evaluated on every request and never cached.
package auth

// Identity is the decoded subject of an access token.
type Identity struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// CanBorrowFor allows borrowing on behalf of userID by that user or an admin.
func CanBorrowFor(id Identity, userID string) bool {
	return id.IsAdmin || id.UserID == userID
}

// CanReturn allows the current borrower or an admin to return a book.
// borrowedBy is nil for an available book.
func CanReturn(id Identity, borrowedBy *string) bool {
	if id.IsAdmin {
		return true
	}
	return borrowedBy != nil && *borrowedBy == id.UserID
}

func CanManageBooks(id Identity) bool {
	return id.IsAdmin
}

// CanAccessUser covers reading and updating a user record.
func CanAccessUser(id Identity, userID string) bool {
	return id.IsAdmin || id.UserID == userID
}

func CanDeleteUser(id Identity) bool {
	return id.IsAdmin
}

// CanGrantAdmin guards changes to the is_admin flag.
func CanGrantAdmin(id Identity) bool {
	return id.IsAdmin
}

func CanListUsers(id Identity) bool {
	return id.IsAdmin
}
