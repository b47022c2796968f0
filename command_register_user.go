package store

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	UseHashid bool   `json:"-"`

	user *User
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// User returns the created record after a successful Execute.
func (e RegisterUserMessage) User() *User { return e.user }

type RegisterUserHandler struct {
	repo RepositoryManager
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event *RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event *RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(event.Email))

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.ensureAvailable(ctx, tx, email, event.Username); err != nil {
			return err
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = email
		user.Phone = event.Phone
		user.Address = event.Address
		user.FullName = event.FullName
		user.Username = getUsername(event.Username, email)
		user.IsActive = true
		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	event.user = user

	return nil
}

// ensureAvailable answers conflict for a taken email or username before we
// hit the unique index, so the caller gets a clean message instead of a
// driver error. Email comparison is case insensitive.
func (h *RegisterUserHandler) ensureAvailable(ctx context.Context, tx bun.IDB, email, username string) error {
	if _, err := h.repo.Users().GetByIdentifierTx(ctx, tx, email); err == nil {
		return goerrors.New("email already registered", goerrors.CategoryConflict).
			WithTextCode("EMAIL_TAKEN")
	} else if !repository.IsRecordNotFound(err) {
		return err
	}

	username = getUsername(username, email)
	if username == "" {
		return nil
	}

	if _, err := h.repo.Users().GetByIdentifierTx(ctx, tx, username); err == nil {
		return goerrors.New("username already taken", goerrors.CategoryConflict).
			WithTextCode("USERNAME_TAKEN")
	} else if !repository.IsRecordNotFound(err) {
		return err
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
