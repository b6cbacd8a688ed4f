package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sokol111/student-housing/internal/events"
	"github.com/Sokol111/student-housing/pkg/security/token"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(repo UserRepository, emitter EventEmitter) *service {
	svc := newService(repo, &fakeIssuer{}, &fakeValidator{}, emitter, Config{BcryptCost: bcrypt.MinCost}).(*service)
	svc.newCode = func() (string, error) { return "123456", nil }
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func TestRegister(t *testing.T) {
	t.Run("stores user and emits registration", func(t *testing.T) {
		repo := newMemoryRepository()
		emitter := &fakeEmitter{}
		svc := newTestService(repo, emitter)

		session, err := svc.Register(context.Background(), RegisterCommand{
			Name:               " Mona ",
			Email:              " Mona@Uni.EG ",
			Phone:              "+201000000000",
			Password:           "secret1",
			VerificationMethod: "phone",
			Profile:            Profile{Age: 20, University: "Cairo"},
		})

		require.NoError(t, err)
		assert.Equal(t, "token-"+session.User.ID, session.Token)
		assert.Equal(t, "mona@uni.eg", session.User.Email)
		assert.Equal(t, "Mona", session.User.Name)
		assert.Equal(t, DefaultRole, session.User.Role)
		assert.Equal(t, "Cairo", session.User.Profile.University)
		assert.Len(t, session.User.ID, 24)
		require.NoError(t, bcrypt.CompareHashAndPassword(session.User.PasswordHash, []byte("secret1")))

		require.Len(t, emitter.events, 1)
		assert.Equal(t, events.TopicAuth, emitter.events[0].topic)
		ev, ok := emitter.events[0].event.(events.UserRegistered)
		require.True(t, ok)
		assert.Equal(t, "mona@uni.eg", ev.User.Email)
		assert.Equal(t, "123456", ev.User.VerificationCode)
		assert.Equal(t, events.VerificationPhone, ev.User.VerificationMethod)
		assert.NotEmpty(t, ev.ID())
	})

	t.Run("defaults verification method to email", func(t *testing.T) {
		emitter := &fakeEmitter{}
		svc := newTestService(newMemoryRepository(), emitter)

		session, err := svc.Register(context.Background(), RegisterCommand{Email: "a@uni.eg", Password: "secret1", Role: "owner"})

		require.NoError(t, err)
		assert.Equal(t, "owner", session.User.Role)
		assert.Equal(t, DefaultVerificationMethod, session.User.VerificationMethod)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newMemoryRepository()
		emitter := &fakeEmitter{}
		svc := newTestService(repo, emitter)
		_, err := svc.Register(context.Background(), RegisterCommand{Email: "a@uni.eg", Password: "secret1"})
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), RegisterCommand{Email: "A@uni.eg", Password: "other12"})

		require.ErrorIs(t, err, ErrEmailExists)
		assert.Len(t, emitter.events, 1)
	})

	t.Run("emit failure does not fail registration", func(t *testing.T) {
		svc := newTestService(newMemoryRepository(), &fakeEmitter{err: errors.New("queue full")})

		session, err := svc.Register(context.Background(), RegisterCommand{Email: "a@uni.eg", Password: "secret1"})

		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := newMemoryRepository()
		repo.insertErr = errors.New("connection refused")
		emitter := &fakeEmitter{}
		svc := newTestService(repo, emitter)

		_, err := svc.Register(context.Background(), RegisterCommand{Email: "a@uni.eg", Password: "secret1"})

		require.Error(t, err)
		assert.Empty(t, emitter.events)
	})
	t.Run("token failure leaves no user behind", func(t *testing.T) {
		repo := newMemoryRepository()
		emitter := &fakeEmitter{}
		svc := newTestService(repo, emitter)
		svc.issuer = &fakeIssuer{issueFunc: func(string, string) (string, error) {
			return "", errors.New("signing key unavailable")
		}}

		_, err := svc.Register(context.Background(), RegisterCommand{Email: "a@uni.eg", Password: "secret1"})

		require.Error(t, err)
		assert.Empty(t, emitter.events)
		exists, err := repo.ExistsByEmail(context.Background(), "a@uni.eg")
		require.NoError(t, err)
		assert.False(t, exists, "a retry must not hit the duplicate email check")
	})
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		cmd    RegisterCommand
		fields []string
	}{
		{name: "missing email and password", cmd: RegisterCommand{}, fields: []string{"email", "password"}},
		{name: "malformed email", cmd: RegisterCommand{Email: "nope", Password: "secret1"}, fields: []string{"email"}},
		{name: "short password", cmd: RegisterCommand{Email: "a@uni.eg", Password: "abc"}, fields: []string{"password"}},
		{name: "unknown verification method", cmd: RegisterCommand{Email: "a@uni.eg", Password: "secret1", VerificationMethod: "pigeon"}, fields: []string{"verificationMethod"}},
		{name: "phone verification without phone", cmd: RegisterCommand{Email: "a@uni.eg", Password: "secret1", VerificationMethod: "phone"}, fields: []string{"phone"}},
		{name: "sms verification with blank phone", cmd: RegisterCommand{Email: "a@uni.eg", Password: "secret1", Phone: "  ", VerificationMethod: "sms"}, fields: []string{"phone"}},
		{name: "profile fields", cmd: RegisterCommand{Email: "a@uni.eg", Password: "secret1", Profile: Profile{Age: -1, UniEmail: "x"}}, fields: []string{"age", "uniEmail"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newMemoryRepository(), &fakeEmitter{})

			_, err := svc.Register(context.Background(), tt.cmd)

			var verr validation.Errors
			require.ErrorAs(t, err, &verr)
			for _, f := range tt.fields {
				assert.Contains(t, verr, f)
			}
			assert.Len(t, verr, len(tt.fields))
		})
	}
}

func TestLogin(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, &fakeEmitter{})
	registered, err := svc.Register(context.Background(), RegisterCommand{Email: "a@uni.eg", Password: "secret1"})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		session, err := svc.Login(context.Background(), LoginCommand{Email: "A@UNI.EG", Password: "secret1"})

		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, session.User.ID)
		assert.Equal(t, "token-"+registered.User.ID, session.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginCommand{Email: "a@uni.eg", Password: "wrong"})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginCommand{Email: "b@uni.eg", Password: "secret1"})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestVerify(t *testing.T) {
	svc := newTestService(newMemoryRepository(), &fakeEmitter{})
	svc.validator = &fakeValidator{validateFunc: func(tok string) (*token.Claims, error) {
		if tok == "good" {
			return &token.Claims{UserID: "u1", Role: "student"}, nil
		}
		return nil, token.ErrInvalidToken
	}}

	claims, err := svc.Verify("good")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	_, err = svc.Verify("bad")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerificationCode(t *testing.T) {
	for range 20 {
		code, err := verificationCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}
