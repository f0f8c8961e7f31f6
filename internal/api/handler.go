package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"task-service/internal/model"
	"task-service/internal/service"
)

// AvatarPresigner hands out direct-upload URLs for avatar images.
type AvatarPresigner interface {
	GeneratePresignedUploadURL(ctx context.Context, objectKey string) (string, error)
	PublicURL(objectKey string) string
}

type AuthHandler struct {
	authService   service.AuthService
	presigner     AvatarPresigner
	sessionTTL    time.Duration
	secureCookies bool
	validate      *validator.Validate
}

type AuthHandlerOption func(*AuthHandler)

// WithAvatarPresigner enables the avatar upload URL endpoint.
func WithAvatarPresigner(presigner AvatarPresigner) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.presigner = presigner
	}
}

func WithSecureCookies(secure bool) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.secureCookies = secure
	}
}

func NewAuthHandler(authService service.AuthService, sessionTTL time.Duration, opts ...AuthHandlerOption) *AuthHandler {
	h := &AuthHandler{
		authService: authService,
		sessionTTL:  sessionTTL,
		validate:    validator.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateAvatarRequest struct {
	AvatarURL string `json:"avatarUrl" validate:"required,url"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatarUrl"`
}

type UserProfileResponse struct {
	UserResponse
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.Avatar(),
	}
}

func newUserProfileResponse(user *model.User) UserProfileResponse {
	return UserProfileResponse{
		UserResponse: newUserResponse(user),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var request RegisterRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err, "Missing fields")})
	}

	user, token, err := h.authService.Register(c.UserContext(), request.Name, request.Email, request.Password)
	if err != nil {
		return respondError(c, err, "Registration failed")
	}

	h.setSessionCookie(c, token)

	return c.JSON(fiber.Map{"user": newUserResponse(user)})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var request LoginRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err, "Missing fields")})
	}

	user, token, err := h.authService.Login(c.UserContext(), request.Email, request.Password)
	if err != nil {
		return respondError(c, err, "Login failed")
	}

	h.setSessionCookie(c, token)

	return c.JSON(fiber.Map{"user": newUserResponse(user)})
}

// Logout clears the session cookie. The token itself stays valid until it expires.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{"ok": true})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.authService.CurrentUser(c.UserContext(), IdentityFromContext(c))
	if err != nil {
		slog.ErrorContext(c.UserContext(), "Failed to load current user", slog.String("error", err.Error()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"user": nil})
	}

	if user == nil {
		return c.JSON(fiber.Map{"user": nil})
	}

	return c.JSON(fiber.Map{"user": newUserProfileResponse(user)})
}

func (h *AuthHandler) UpdateAvatar(c *fiber.Ctx) error {
	var request UpdateAvatarRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err, "Avatar URL is required")})
	}

	user, err := h.authService.UpdateAvatar(c.UserContext(), IdentityFromContext(c), request.AvatarURL)
	if err != nil {
		return respondError(c, err, "Failed to update avatar")
	}

	return c.JSON(fiber.Map{"user": newUserProfileResponse(user)})
}

func (h *AuthHandler) AvatarUploadURL(c *fiber.Ctx) error {
	if h.presigner == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Avatar uploads are not configured"})
	}

	identity := IdentityFromContext(c)
	objectKey := "user-avatars/" + identity.UserID.String() + "/" + uuid.New().String() + ".jpg"

	uploadURL, err := h.presigner.GeneratePresignedUploadURL(c.UserContext(), objectKey)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "Failed to presign avatar upload", slog.String("error", err.Error()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not generate upload URL"})
	}

	return c.JSON(fiber.Map{
		"uploadUrl":     uploadURL,
		"finalImageUrl": h.presigner.PublicURL(objectKey),
	})
}

// validationMessage turns validator failures into a client message. Missing
// fields win over format errors.
func validationMessage(err error, missing string) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return missing
	}

	message := missing
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			return missing
		case "email":
			message = "Invalid email"
		case "url":
			message = "Invalid avatar URL"
		}
	}
	return message
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
