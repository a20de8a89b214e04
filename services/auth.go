package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/phillip/college-events-go/models"
	"github.com/phillip/college-events-go/store"
)

type UserRepository interface {
	Insert(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Notifier delivers transactional email. Optional.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type RegisterInput struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type AuthResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      models.Account `json:"user"`
}

type AuthService struct {
	users    UserRepository
	tokens   *TokenIssuer
	notifier Notifier
	cost     int
}

func NewAuthService(users UserRepository, tokens *TokenIssuer, notifier Notifier) *AuthService {
	return &AuthService{users: users, tokens: tokens, notifier: notifier, cost: bcrypt.DefaultCost}
}

// Register creates a student account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := inputError(validate.Struct(in)); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, ErrInternal("Error registering user", err)
	}

	u := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		Role:     models.RoleStudent,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, errConflict("User already exists")
		}
		return nil, ErrInternal("Error registering user", err)
	}

	log.Ctx(ctx).Info().Str("user_id", u.ID.Hex()).Msg("user registered")
	s.welcome(ctx, *u)
	return s.signIn(*u)
}

// Login checks the credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := inputError(validate.Struct(in)); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated("Invalid credentials")
		}
		return nil, ErrInternal("Error logging in", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)) != nil {
		return nil, ErrUnauthenticated("Invalid credentials")
	}
	return s.signIn(*u)
}

// Me returns the account behind who.
func (s *AuthService) Me(ctx context.Context, who *Identity) (*models.Account, error) {
	id, err := requester(who)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound("User not found")
		}
		return nil, ErrInternal("Error fetching user", err)
	}
	acct := u.Account()
	return &acct, nil
}

func (s *AuthService) signIn(u models.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, ErrInternal("Error issuing token", err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: u.Account()}, nil
}

func (s *AuthService) welcome(ctx context.Context, u models.User) {
	if s.notifier == nil {
		return
	}
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your college events account is ready.</p>", u.Username)
	if err := s.notifier.SendEmail(ctx, u.Email, "Welcome to College Events", body); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("user_id", u.ID.Hex()).Msg("welcome email failed")
	}
}

// inputError turns validator output into a validation error listing one
// message per failing field.
func inputError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInternal("validation failed", err)
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldMessage(fe))
	}
	return &Error{
		Kind:       KindValidation,
		Validation: InvalidField,
		Message:    details[0],
		Field:      verrs[0].Field(),
		Details:    details,
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
