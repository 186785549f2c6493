package service

import (
	"context"
	"time"

	"github.com/gatekeep/gatekeep-go/internal/apperror"
	"github.com/gatekeep/gatekeep-go/internal/crypto"
	"github.com/gatekeep/gatekeep-go/internal/model"
)

// AuthService pairs credential checks with session token issuance.
type AuthService struct {
	credentials *CredentialService
	tokens      *crypto.TokenCodec
	tokenTTL    time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(credentials *CredentialService, tokens *crypto.TokenCodec, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		credentials: credentials,
		tokens:      tokens,
		tokenTTL:    tokenTTL,
	}
}

// Register creates an account and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, req model.Credentials) (model.AuthResponse, error) {
	account, err := s.credentials.Register(ctx, req.Email, req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return s.respond(account)
}

// Login authenticates an account and returns it with a fresh token.
func (s *AuthService) Login(ctx context.Context, req model.Credentials) (model.AuthResponse, error) {
	account, err := s.credentials.Login(ctx, req.Email, req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return s.respond(account)
}

// Authenticate verifies a bearer token.
func (s *AuthService) Authenticate(token string) (model.TokenPayload, error) {
	return s.tokens.Verify(token)
}

// Me returns the public data of the account a token was issued to.
func (s *AuthService) Me(ctx context.Context, userID int64) (model.AccountResponse, error) {
	account, err := s.credentials.Account(ctx, userID)
	if err != nil {
		return model.AccountResponse{}, err
	}
	return model.NewAccountResponse(account), nil
}

func (s *AuthService) respond(account model.Account) (model.AuthResponse, error) {
	token, err := s.tokens.Issue(account.ID, account.Email, s.tokenTTL)
	if err != nil {
		return model.AuthResponse{}, apperror.Wrap(apperror.Internal, msgInternal, err)
	}

	return model.AuthResponse{
		Account: model.NewAccountResponse(account),
		Token:   token,
	}, nil
}
