package store

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// AuthController serves registration, sessions, and the current user profile.
type AuthController struct {
	Repo   RepositoryManager
	Authn  *RouteAuthenticator
	Logger Logger
}

func NewAuthController(repo RepositoryManager, authn *RouteAuthenticator) *AuthController {
	return &AuthController{
		Repo:   repo,
		Authn:  authn,
		Logger: defLogger{},
	}
}

func (a *AuthController) WithLogger(l Logger) *AuthController {
	if l != nil {
		a.Logger = l
	}
	return a
}

// RegisterAuthRoutes mounts the auth surface under /auth.
func RegisterAuthRoutes(app fiber.Router, ctrl *AuthController) {
	group := app.Group("/auth")

	group.Post("/register", ctrl.Register)
	group.Post("/login", ctrl.Login)
	group.Post("/logout", ctrl.Logout)
	group.Get("/token-info", ctrl.TokenInfo)
	group.Post("/verify-token", ctrl.VerifyToken)

	group.Get("/current_user_profile", ctrl.Authn.RequireAuth(), ctrl.Profile)
	group.Put("/update_profile", ctrl.Authn.RequireAuth(), ctrl.UpdateProfile)
}

// RegistrationPayload is the register request body.
type RegistrationPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// Validate will validate the payload
func (r RegistrationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.FullName, validation.Length(0, 200)),
	)
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegistrationPayload)

	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid registration payload")
	}

	msg := &RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		FullName: payload.FullName,
		Phone:    payload.Phone,
		Address:  payload.Address,
	}

	handler := NewRegisterUserHandler(a.Repo)
	if err := handler.Execute(c.UserContext(), msg); err != nil {
		a.Logger.Error("register user error", "error", err)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(msg.User())
}

// LoginPayload is the login request body.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid login payload")
	}

	token, err := a.Authn.Login(c, payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (a *AuthController) Logout(c *fiber.Ctx) error {
	a.Authn.Logout(c)
	return c.JSON(fiber.Map{
		"message": "logged out",
	})
}

// TokenInfo introspects the cookie session only; it deliberately ignores the
// Authorization header so browser clients can check what their cookie holds.
func (a *AuthController) TokenInfo(c *fiber.Ctx) error {
	cookie := c.Cookies(a.Authn.cfg.GetCookieName())
	if cookie == "" {
		return ErrUnableToFindSession
	}

	raw := cookie
	if token, ok := stripBearer(cookie); ok {
		raw = token
	}

	claims, err := a.Authn.auth.ClaimsFromToken(raw)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user_id":    claims.UserID(),
		"email":      claims.UserEmail(),
		"is_admin":   claims.Admin(),
		"issued_at":  claims.IssuedAt(),
		"expires_at": claims.Expires(),
	})
}

// VerifyTokenPayload is the verify-token request body.
type VerifyTokenPayload struct {
	Token string `json:"token"`
}

// Validate will validate the payload
func (r VerifyTokenPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

// VerifyToken checks an explicit token and reports validity without raising.
func (a *AuthController) VerifyToken(c *fiber.Ctx) error {
	payload := new(VerifyTokenPayload)

	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid verify payload")
	}

	claims, err := a.Authn.auth.ClaimsFromToken(payload.Token)
	if err != nil {
		return c.JSON(fiber.Map{
			"valid": false,
		})
	}

	return c.JSON(fiber.Map{
		"valid":      true,
		"user_id":    claims.UserID(),
		"email":      claims.UserEmail(),
		"expires_at": claims.Expires(),
	})
}

func (a *AuthController) Profile(c *fiber.Ctx) error {
	user, err := a.currentUser(c)
	if err != nil {
		return err
	}

	return c.JSON(user)
}

// UpdateProfilePayload is the profile update request body.
type UpdateProfilePayload struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// Validate will validate the payload
func (r UpdateProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Length(0, 200)),
		validation.Field(&r.Phone, validation.Length(0, 20)),
		validation.Field(&r.Address, validation.Length(0, 500)),
	)
}

func (a *AuthController) UpdateProfile(c *fiber.Ctx) error {
	userID, err := UserIDFromContext(c)
	if err != nil {
		return err
	}

	payload := new(UpdateProfilePayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid profile payload")
	}

	user, err := a.Repo.Users().UpdateProfile(c.UserContext(), userID, &User{
		FullName: payload.FullName,
		Phone:    payload.Phone,
		Address:  payload.Address,
	})
	if err != nil {
		a.Logger.Error("update profile error", "error", err)
		return err
	}

	return c.JSON(user)
}

func (a *AuthController) currentUser(c *fiber.Ctx) (*User, error) {
	userID, err := UserIDFromContext(c)
	if err != nil {
		return nil, err
	}

	return a.Repo.Users().GetByID(c.UserContext(), userID.String())
}
