package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Sokol111/student-housing/internal/events"
	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/messaging/producer"
	"github.com/Sokol111/student-housing/pkg/persistence"
	"github.com/Sokol111/student-housing/pkg/security/token"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// EventEmitter queues an event for publishing without waiting on the bus.
type EventEmitter interface {
	Emit(ctx context.Context, topic string, event producer.Event) error
}

// RegisterCommand is decoded straight from the request body; profile fields sit at the top level.
type RegisterCommand struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Password           string `json:"password"`
	Role               string `json:"role"`
	VerificationMethod string `json:"verificationMethod"`
	Profile
}

func (c RegisterCommand) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.EmailFormat),
		validation.Field(&c.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&c.Name, validation.Length(0, 200)),
		validation.Field(&c.VerificationMethod, validation.In(events.VerificationEmail, events.VerificationPhone, "sms")),
		validation.Field(&c.Phone, validation.When(c.sendsSMS(), validation.Required.Error("is required for phone verification"))),
		validation.Field(&c.Profile),
	)
}

// sendsSMS reports whether the verification code goes to the phone number.
func (c RegisterCommand) sendsSMS() bool {
	return c.VerificationMethod != "" && c.VerificationMethod != events.VerificationEmail
}

func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Age, validation.Min(0), validation.Max(150)),
		validation.Field(&p.UniEmail, is.EmailFormat),
	)
}

type LoginCommand struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c LoginCommand) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

// Session is the result of a successful register or login.
type Session struct {
	Token string
	User  *User
}

type Service interface {
	Register(ctx context.Context, cmd RegisterCommand) (*Session, error)
	Login(ctx context.Context, cmd LoginCommand) (*Session, error)
	Verify(tokenString string) (*token.Claims, error)
}

type service struct {
	repo       UserRepository
	issuer     token.Issuer
	validator  token.Validator
	emitter    EventEmitter
	bcryptCost int
	newCode    func() (string, error)
	now        func() time.Time
}

func newService(repo UserRepository, issuer token.Issuer, validator token.Validator, emitter EventEmitter, cfg Config) Service {
	return &service{
		repo:       repo,
		issuer:     issuer,
		validator:  validator,
		emitter:    emitter,
		bcryptCost: cfg.BcryptCost,
		newCode:    verificationCode,
		now:        time.Now,
	}
}

func (s *service) Register(ctx context.Context, cmd RegisterCommand) (*Session, error) {
	cmd.Email = normalizeEmail(cmd.Email)
	cmd.Phone = strings.TrimSpace(cmd.Phone)
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	user := &User{
		ID:                 newUserID(),
		Name:               strings.TrimSpace(cmd.Name),
		Email:              cmd.Email,
		Phone:              cmd.Phone,
		PasswordHash:       hash,
		Role:               cmd.Role,
		VerificationMethod: cmd.VerificationMethod,
		VerificationCode:   code,
		Profile:            cmd.Profile,
		CreatedAt:          s.now().UTC(),
	}
	if user.Role == "" {
		user.Role = DefaultRole
	}
	if user.VerificationMethod == "" {
		user.VerificationMethod = DefaultVerificationMethod
	}

	// Issued before the insert so that a failure leaves no user behind.
	tok, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	// The unique index still catches a concurrent registration that passed the check above.
	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, err
	}

	s.emitRegistered(ctx, user)
	return &Session{Token: tok, User: user}, nil
}

func (s *service) emitRegistered(ctx context.Context, u *User) {
	ev := events.NewUserRegistered(events.User{
		Email:              u.Email,
		Phone:              u.Phone,
		Name:               u.Name,
		VerificationCode:   u.VerificationCode,
		VerificationMethod: u.VerificationMethod,
	})
	if err := s.emitter.Emit(ctx, events.TopicAuth, ev); err != nil {
		logger.FromContext(ctx).Error("failed to emit event",
			zap.String("event", ev.Kind()),
			zap.String("user_id", u.ID),
			zap.Error(err))
	}
}

func (s *service) Login(ctx context.Context, cmd LoginCommand) (*Session, error) {
	cmd.Email = normalizeEmail(cmd.Email)
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, cmd.Email)
	if errors.Is(err, persistence.ErrEntityNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(cmd.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tok, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: tok, User: user}, nil
}

func (s *service) Verify(tokenString string) (*token.Claims, error) {
	return s.validator.Validate(tokenString)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
