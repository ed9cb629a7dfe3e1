package users

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fitrank/fitrank-api/internal/mail"
	"github.com/fitrank/fitrank-api/internal/models"
	"github.com/fitrank/fitrank-api/pkg/logger"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInvalidInput      = errors.New("invalid input")
)

const (
	tempPasswordLength   = 10
	tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// Service encapsulates user-related business logic
type Service struct {
	repo     Repository
	mailer   mail.Mailer
	hashCost int
}

func NewService(r Repository, m mail.Mailer) *Service {
	return &Service{repo: r, mailer: m, hashCost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

func (s *Service) hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must be at most 72 bytes", ErrInvalidInput)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Register creates the account and sends the welcome mail. A mail failure is
// returned to the caller but the account stays created.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.User, error) {
	email := strings.TrimSpace(reg.Email)
	name := strings.TrimSpace(reg.Name)
	if email == "" || name == "" || reg.Password == "" {
		return nil, fmt.Errorf("%w: email, password and name are required", ErrInvalidInput)
	}
	hashed, err := s.hash(reg.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:     email,
		Password:  hashed,
		Name:      name,
		Birthday:  reg.Birthday,
		Marketing: reg.Marketing,
		Push:      reg.Push,
		Notice:    reg.Notice,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	logger.Infow("user registered", "userId", u.ID)

	msg, err := mail.SignupMessage(u.Email, u.Name)
	if err != nil {
		return u, err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return u, fmt.Errorf("send signup mail: %w", err)
	}
	return u, nil
}

// Authenticate checks the credentials and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *Service) FindByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	return s.repo.FindByEmails(ctx, emails)
}

// UpdateProfile applies a partial update and returns the stored result.
func (s *Service) UpdateProfile(ctx context.Context, id uint, p ProfileUpdate) (*models.User, error) {
	cols, err := p.columns(s.hash)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Update(ctx, id, cols)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// SetImage records the profile image URL.
func (s *Service) SetImage(ctx context.Context, id uint, url string) (*models.User, error) {
	u, err := s.repo.Update(ctx, id, map[string]interface{}{"img": url})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// ResetPassword replaces the password with a random temporary one and mails
// it to the account owner.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if u == nil {
		return ErrNotFound
	}
	temp, err := tempPassword()
	if err != nil {
		return err
	}
	hashed, err := s.hash(temp)
	if err != nil {
		return err
	}
	if _, err := s.repo.Update(ctx, u.ID, map[string]interface{}{"password": hashed}); err != nil {
		return err
	}
	msg, err := mail.PasswordResetMessage(u.Email, u.Name, temp)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send password mail: %w", err)
	}
	logger.Infow("password reset", "userId", u.ID)
	return nil
}

func tempPassword() (string, error) {
	size := big.NewInt(int64(len(tempPasswordAlphabet)))
	b := make([]byte, tempPasswordLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		b[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(b), nil
}
