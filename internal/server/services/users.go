package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/auth"
	"github.com/dmitrijs2005/bookkeeper/internal/server/config"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
)

// Token is an issued bearer access token.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

type UserInput struct {
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

// UserPatch holds the fields to change; nil leaves a field untouched.
type UserPatch struct {
	Name     *string
	Password *string
	IsAdmin  *bool
}

// UserService manages accounts, credentials and access tokens.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	signingMethod               string
	accessTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		signingMethod:               cfg.SigningMethod,
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).FindByID(ctx, id)
}

// GetByEmail normalizes email first; a malformed address is simply a miss.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	e, err := models.NewEmail(email)
	if err != nil {
		return nil, nil
	}
	return s.repomanager.Users(s.db).FindByEmail(ctx, e)
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.db).FindAll(ctx)
}

// Create registers a user. An email that is already taken yields
// models.ErrDuplicateEmail and leaves the existing account untouched.
func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	name, err := models.NewName(in.Name)
	if err != nil {
		return nil, err
	}
	email, err := models.NewEmail(in.Email)
	if err != nil {
		return nil, err
	}
	password, err := models.NewPassword(in.Password)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	existing, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(string(password))
	if err != nil {
		return nil, err
	}

	user := models.NewUser(name, email, hash, in.IsAdmin)
	if err := repo.Save(ctx, user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, models.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id string, p UserPatch) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByID(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}

	if p.Name != nil {
		if user.Name, err = models.NewName(*p.Name); err != nil {
			return nil, err
		}
	}
	if p.Password != nil {
		password, err := models.NewPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		if user.PasswordHash, err = auth.HashPassword(string(password)); err != nil {
			return nil, err
		}
	}
	if p.IsAdmin != nil {
		user.IsAdmin = *p.IsAdmin
	}

	if err := repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Delete removes the user and reports whether it existed. A user who still
// holds books is refused with models.ErrUserHasBorrowedBooks.
func (s *UserService) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Books(tx).CountBorrowedBy(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("user %s holds %d book(s): %w", id, n, models.ErrUserHasBorrowedBooks)
		}

		deleted, err = s.repomanager.Users(tx).Delete(ctx, id)
		if dbx.IsForeignKeyViolation(err) {
			// a borrow committed after the count
			return fmt.Errorf("user %s: %w", id, models.ErrUserHasBorrowedBooks)
		}
		return err
	})
	if err != nil {
		return false, err
	}

	return deleted, nil
}

// Authenticate returns the user whose credentials match, or (nil, nil).
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		auth.BurnPasswordCheck(password)
		return nil, nil
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return user, nil
}

// BooksForUser lists the ids of the books userID currently holds, in
// repository order.
func (s *UserService) BooksForUser(ctx context.Context, userID string) ([]string, error) {
	all, err := s.repomanager.Books(s.db).FindAll(ctx)
	if err != nil {
		return nil, err
	}

	ids := []string{}
	for _, b := range all {
		if b.IsBorrowedBy(userID) {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

// Login authenticates and mints an access token. Bad credentials yield
// common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*Token, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w: %w", common.ErrorInternal, err)
	}
	if user == nil {
		return nil, common.ErrorUnauthorized
	}

	expires := time.Now().Add(s.accessTokenValidityDuration)
	access, err := auth.GenerateToken(auth.Identity{
		UserID:  user.ID,
		Email:   string(user.Email),
		IsAdmin: user.IsAdmin,
	}, s.jwtSecret, s.signingMethod, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w: %w", common.ErrorInternal, err)
	}

	return &Token{AccessToken: access, TokenType: "bearer", ExpiresAt: expires}, nil
}
