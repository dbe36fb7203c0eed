package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

const defaultTokenTTL = 24 * time.Hour

// Options настраивают сервис аутентификации.
type Options struct {
	Logger   *log.Logger
	TokenTTL time.Duration
	Now      func() time.Time
}

// Option изменяет Options.
type Option func(*Options)

// WithLogger задаёт логгер сервиса.
func WithLogger(logger *log.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithTokenTTL задаёт срок жизни выданных токенов.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *Options) { o.TokenTTL = ttl }
}

// WithNow задаёт источник времени (для тестов).
func WithNow(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

// Service выполняет регистрацию, вход и проверку токенов.
type Service struct {
	users  domain.UserRepository
	tokens *tokenStore
	ttl    time.Duration
	now    func() time.Time
	logger *log.Entry
}

// NewService создаёт сервис аутентификации поверх хранилища пользователей.
func NewService(users domain.UserRepository, opts ...Option) *Service {
	options := Options{
		Logger:   log.StandardLogger(),
		TokenTTL: defaultTokenTTL,
		Now:      time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Service{
		users:  users,
		tokens: newTokenStore(),
		ttl:    options.TokenTTL,
		now:    options.Now,
		logger: options.Logger.WithField("component", "auth"),
	}
}

// RegisterRequest — данные формы регистрации.
type RegisterRequest struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
}

// Register создаёт учётную запись и сразу выдаёт токен сессии.
func (s *Service) Register(req RegisterRequest) (domain.User, string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	if _, err := s.users.GetByEmail(req.Email); err == nil {
		return domain.User{}, "", domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, "", fmt.Errorf("lookup user by email: %w", err)
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(user); err != nil {
		return domain.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token := s.issueToken(user.ID)
	s.logger.WithFields(log.Fields{"user_id": user.ID}).Info("user registered")
	return user, token, nil
}

// Login проверяет учётные данные и выдаёт токен сессии.
func (s *Service) Login(email, password string) (domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, "", domain.ErrInvalidCredentials
		}
		return domain.User{}, "", fmt.Errorf("lookup user by email: %w", err)
	}

	if !verifyPassword(user.PasswordHash, password) {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	token := s.issueToken(user.ID)
	s.logger.WithFields(log.Fields{"user_id": user.ID}).Info("user logged in")
	return user, token, nil
}

// Verify возвращает пользователя по действующему токену сессии.
func (s *Service) Verify(token string) (domain.User, error) {
	userID, ok := s.tokens.lookup(token, s.now())
	if !ok {
		return domain.User{}, domain.ErrTokenInvalid
	}

	user, err := s.users.Get(userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrTokenInvalid
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// Logout отзывает токен сессии; неизвестный токен — no-op.
func (s *Service) Logout(token string) {
	s.tokens.revoke(token)
}

func (s *Service) issueToken(userID string) string {
	token := uuid.NewString()
	s.tokens.put(token, userID, s.now().Add(s.ttl))
	return token
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	saltHex := hex.EncodeToString(salt)
	return saltHex + "$" + digest(saltHex, password), nil
}

func verifyPassword(stored, password string) bool {
	salt, sum, ok := strings.Cut(stored, "$")
	if !ok {
		return false
	}
	return digest(salt, password) == sum
}

func digest(salt, password string) string {
	h := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(h[:])
}
