// services/auth_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"yogastore-backend/models"
	"yogastore-backend/repository"
	"yogastore-backend/session"
	"yogastore-backend/store"
	"yogastore-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
	PhoneNumber     string
	DateOfBirth     string
}

func (in SignUpInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "name is required")
	}
	if !utils.ValidateEmail(strings.TrimSpace(in.Email)) {
		return invalid("email", "a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return invalid("password", "password must be at least %d characters", minPasswordLength)
	}
	if in.Password != in.ConfirmPassword {
		return invalid("confirmPassword", "passwords do not match")
	}
	if in.PhoneNumber != "" && !utils.ValidatePhone(in.PhoneNumber) {
		return invalid("phoneNumber", "phone number is not valid")
	}
	if in.DateOfBirth != "" {
		if _, ok := utils.ParseDate(in.DateOfBirth); !ok {
			return invalid("dateOfBirth", "date of birth must be a date")
		}
	}
	return nil
}

// SignedIn is returned by SignIn: the session and the bearer token that
// resumes it.
type SignedIn struct {
	Token   string           `json:"token"`
	Session *session.Session `json:"session"`
}

// AuthService owns the session lifecycle: sign-up leaves the caller signed
// out, sign-in creates a session, sign-out destroys it.
type AuthService struct {
	customers *repository.CustomerRepository
	sessions  session.Store
	secret    string
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthService(st store.Store, sessions session.Store, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		customers: repository.NewCustomerRepository(st),
		sessions:  sessions,
		secret:    secret,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (models.Customer, error) {
	if err := in.validate(); err != nil {
		return models.Customer{}, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return models.Customer{}, err
	}

	c, err := s.customers.Create(ctx, models.Customer{
		Email:       strings.TrimSpace(in.Email),
		Password:    hash,
		Name:        strings.TrimSpace(in.Name),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		DateOfBirth: strings.TrimSpace(in.DateOfBirth),
		DateCreated: utils.FormatDate(s.now()),
		Balance:     decimal.Zero,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return models.Customer{}, err
		}
		return models.Customer{}, storeFailure(ErrStoreUnavailable, err)
	}
	logrus.WithField("customer_id", c.ID).Info("customer registered")
	return c, nil
}

// SignIn checks credentials and starts a session. Unknown emails and wrong
// passwords fail the same way. A plaintext password left from older records
// is accepted once and replaced with its hash.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignedIn, error) {
	c, err := s.customers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeFailure(ErrStoreUnavailable, err)
	}
	if !utils.CheckPassword(password, c.Password) {
		logrus.WithField("customer_id", c.ID).Warn("failed sign-in")
		return nil, ErrInvalidCredentials
	}
	if !utils.IsPasswordHash(c.Password) {
		s.upgradePassword(ctx, c.ID, password)
	}

	now := s.now().UTC()
	sess := &session.Session{
		ID:         uuid.NewString(),
		CustomerID: c.ID,
		Email:      c.Email,
		Name:       c.Name,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	token, err := utils.GenerateToken(s.secret, c.ID, sess.ID, s.ttl)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, storeFailure(ErrStoreUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{"customer_id": c.ID, "session_id": sess.ID}).Info("signed in")
	return &SignedIn{Token: token, Session: sess}, nil
}

func (s *AuthService) upgradePassword(ctx context.Context, customerID int64, password string) {
	hash, err := utils.HashPassword(password)
	if err == nil {
		_, err = s.customers.Mutate(ctx, customerID, func(c *models.Customer) error {
			c.Password = hash
			return nil
		})
	}
	if err != nil {
		logrus.WithError(err).WithField("customer_id", customerID).Warn("could not upgrade legacy password")
		return
	}
	logrus.WithField("customer_id", customerID).Info("legacy password upgraded")
}

// Resume rehydrates the session a token points to.
func (s *AuthService) Resume(ctx context.Context, token string) (*session.Session, error) {
	claims, err := utils.ParseToken(s.secret, token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	sess, err := s.sessions.Load(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, storeFailure(ErrStoreUnavailable, err)
	}
	if id, err := claims.CustomerID(); err != nil || id != sess.CustomerID || sess.Expired(s.now()) {
		return nil, ErrUnauthenticated
	}
	return sess, nil
}

func (s *AuthService) SignOut(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return ErrUnauthenticated
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return storeFailure(ErrStoreUnavailable, err)
	}
	logrus.WithFields(logrus.Fields{"customer_id": sess.CustomerID, "session_id": sess.ID}).Info("signed out")
	return nil
}
