package service

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/gatekeep/gatekeep-go/internal/apperror"
	"github.com/gatekeep/gatekeep-go/internal/crypto"
	"github.com/gatekeep/gatekeep-go/internal/model"
	"github.com/gatekeep/gatekeep-go/internal/repository"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength bounds the work a single hash can cost.
	MaxPasswordLength = 72
)

// Messages shown to callers. Unknown email and wrong password share one.
const (
	msgInvalidEmail       = "Invalid email format"
	msgPasswordTooShort   = "Password must be at least 8 characters"
	msgPasswordTooLong    = "Password must be at most 72 characters"
	msgPasswordTooSimple  = "Password must contain at least one letter and one number"
	msgDuplicateEmail     = "Email already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgInternal           = "internal server error"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// AccountStore persists accounts. Create must fail with
// repository.ErrDuplicateEmail when the email is already registered, and
// must do so atomically with the insert.
type AccountStore interface {
	Create(ctx context.Context, account *model.Account) error
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	GetByID(ctx context.Context, id int64) (model.Account, error)
}

// CredentialService owns account creation and password authentication.
type CredentialService struct {
	store  AccountStore
	hasher *crypto.PasswordHasher
}

// NewCredentialService creates a new CredentialService.
func NewCredentialService(store AccountStore, hasher *crypto.PasswordHasher) *CredentialService {
	return &CredentialService{
		store:  store,
		hasher: hasher,
	}
}

// NormalizeEmail trims surrounding space and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the credentials and stores a new account. The email is
// checked before the password.
func (s *CredentialService) Register(ctx context.Context, email, password string) (model.Account, error) {
	email = NormalizeEmail(email)

	if err := validateEmail(email); err != nil {
		return model.Account{}, err
	}
	if err := validatePassword(password); err != nil {
		return model.Account{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.Account{}, apperror.Wrap(apperror.Internal, msgInternal, err)
	}

	account := model.Account{
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.store.Create(ctx, &account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.Account{}, apperror.New(apperror.DuplicateEmail, msgDuplicateEmail)
		}
		return model.Account{}, apperror.Wrap(apperror.Internal, msgInternal, err)
	}

	return account, nil
}

// Login returns the account matching email and password. An unknown email
// and a wrong password produce the same error.
func (s *CredentialService) Login(ctx context.Context, email, password string) (model.Account, error) {
	account, err := s.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			s.hasher.VerifyDummy(password)
			return model.Account{}, apperror.New(apperror.InvalidCredentials, msgInvalidCredentials)
		}
		return model.Account{}, apperror.Wrap(apperror.Internal, msgInternal, err)
	}

	match, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return model.Account{}, apperror.Wrap(apperror.Internal, msgInternal, err)
	}
	if !match {
		return model.Account{}, apperror.New(apperror.InvalidCredentials, msgInvalidCredentials)
	}

	return account, nil
}

// Account looks up an account by ID.
func (s *CredentialService) Account(ctx context.Context, id int64) (model.Account, error) {
	account, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return model.Account{}, apperror.New(apperror.InvalidCredentials, msgInvalidCredentials)
		}
		return model.Account{}, apperror.Wrap(apperror.Internal, msgInternal, err)
	}
	return account, nil
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email,max=320"); err != nil {
		return apperror.NewField(apperror.InvalidEmail, "email", msgInvalidEmail)
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return apperror.NewField(apperror.WeakPassword, "password", msgPasswordTooShort)
	}
	if n > MaxPasswordLength {
		return apperror.NewField(apperror.WeakPassword, "password", msgPasswordTooLong)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperror.NewField(apperror.WeakPassword, "password", msgPasswordTooSimple)
	}

	return nil
}
