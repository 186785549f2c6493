package crypto

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gatekeep/gatekeep-go/internal/apperror"
	"github.com/gatekeep/gatekeep-go/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestCodec(t *testing.T, secret string, now func() time.Time) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec(secret, WithClock(now))
	if err != nil {
		t.Fatalf("NewTokenCodec() unexpected error: %v", err)
	}
	return c
}

func clockAt(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestNewTokenCodecRequiresSecret(t *testing.T) {
	_, err := NewTokenCodec("")
	if !errors.Is(err, ErrMissingSecret) {
		t.Errorf("NewTokenCodec(\"\") error = %v, want ErrMissingSecret", err)
	}
}

func TestIssueFormat(t *testing.T) {
	c := newTestCodec(t, "test-secret", clockAt(fixedNow))

	token, err := c.Issue(42, "a@x.com", time.Hour)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	if strings.Count(token, ".") != 2 {
		t.Errorf("Issue() token %q should have three segments", token)
	}
	if !strings.HasPrefix(token, "eyJ") {
		t.Errorf("Issue() token %q should start with a base64url JSON header", token)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		userID int64
		email  string
		ttl    time.Duration
		at     time.Duration
	}{
		{"fresh", 1, "a@x.com", time.Hour, 0},
		{"just before expiry", 42, "someone@example.org", time.Hour, time.Hour - time.Second},
		{"long lived", 9001, "long@example.com", 30 * 24 * time.Hour, 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := fixedNow
			c := newTestCodec(t, "test-secret", func() time.Time { return now })

			token, err := c.Issue(tt.userID, tt.email, tt.ttl)
			if err != nil {
				t.Fatalf("Issue() unexpected error: %v", err)
			}

			now = fixedNow.Add(tt.at)
			got, err := c.Verify(token)
			if err != nil {
				t.Fatalf("Verify() unexpected error: %v", err)
			}

			want := model.TokenPayload{
				UserID:    tt.userID,
				Email:     tt.email,
				IssuedAt:  fixedNow,
				ExpiresAt: fixedNow.Add(tt.ttl),
			}
			if got.UserID != want.UserID || got.Email != want.Email ||
				!got.IssuedAt.Equal(want.IssuedAt) || !got.ExpiresAt.Equal(want.ExpiresAt) {
				t.Errorf("Verify() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestVerifyTruncatesToSeconds(t *testing.T) {
	c := newTestCodec(t, "test-secret", clockAt(fixedNow.Add(750*time.Millisecond)))

	token, err := c.Issue(7, "ms@x.com", time.Minute)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	got, err := c.Verify(token)
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if !got.IssuedAt.Equal(fixedNow) {
		t.Errorf("IssuedAt = %v, want %v", got.IssuedAt, fixedNow)
	}
}

func TestVerifyExpired(t *testing.T) {
	now := fixedNow
	c := newTestCodec(t, "test-secret", func() time.Time { return now })

	token, err := c.Issue(42, "a@x.com", time.Hour)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	for _, after := range []time.Duration{time.Hour, time.Hour + time.Second, 48 * time.Hour} {
		now = fixedNow.Add(after)
		_, err = c.Verify(token)
		if !errors.Is(err, apperror.ErrExpiredToken) {
			t.Errorf("Verify() at +%v error = %v, want ExpiredToken", after, err)
		}
	}
}

const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// replaceSignatureChar returns token with signature character i set to r.
func replaceSignatureChar(token string, i int, r byte) string {
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	sig[i] = r
	return parts[0] + "." + parts[1] + "." + string(sig)
}

func TestVerifyFlippedSignature(t *testing.T) {
	c := newTestCodec(t, "test-secret", clockAt(fixedNow))

	token, err := c.Issue(42, "a@x.com", time.Hour)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	sig := strings.Split(token, ".")[2]

	// Flipping the lowest bit of the alphabet index also covers the last
	// character, whose low bits are padding.
	for i := range len(sig) {
		idx := strings.IndexByte(base64URLAlphabet, sig[i])
		if idx < 0 {
			t.Fatalf("signature char %q not in base64url alphabet", sig[i])
		}
		flipped := base64URLAlphabet[idx^1]

		t.Run(fmt.Sprintf("pos %d %c->%c", i, sig[i], flipped), func(t *testing.T) {
			_, err := c.Verify(replaceSignatureChar(token, i, flipped))
			if !errors.Is(err, apperror.ErrInvalidSignature) {
				t.Errorf("Verify() error = %v, want InvalidSignature", err)
			}
		})
	}
}

func TestVerifySignatureOutsideAlphabet(t *testing.T) {
	c := newTestCodec(t, "test-secret", clockAt(fixedNow))

	token, err := c.Issue(42, "a@x.com", time.Hour)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	n := len(strings.Split(token, ".")[2])

	tests := []struct {
		name string
		pos  int
	}{
		{"first", 0},
		{"middle", n / 2},
		{"last", n - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Verify(replaceSignatureChar(token, tt.pos, '*'))
			if !errors.Is(err, apperror.ErrInvalidSignature) {
				t.Errorf("Verify() error = %v, want InvalidSignature", err)
			}
		})
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := newTestCodec(t, "correct-secret", clockAt(fixedNow)).Issue(42, "a@x.com", time.Hour)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	_, err = newTestCodec(t, "wrong-secret", clockAt(fixedNow)).Verify(token)
	if !errors.Is(err, apperror.ErrInvalidSignature) {
		t.Errorf("Verify() error = %v, want InvalidSignature", err)
	}
}

func TestVerifySignatureCheckedBeforeExpiry(t *testing.T) {
	token, err := newTestCodec(t, "correct-secret", clockAt(fixedNow)).Issue(42, "a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	_, err = newTestCodec(t, "wrong-secret", clockAt(fixedNow.Add(time.Hour))).Verify(token)
	if !errors.Is(err, apperror.ErrInvalidSignature) {
		t.Errorf("Verify() error = %v, want InvalidSignature", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	c := newTestCodec(t, "test-secret", clockAt(fixedNow))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"one segment", "not-a-valid-token"},
		{"two segments", "eyJhbGciOiJIUzI1NiJ9.eyJ1c2VyX2lkIjoxfQ"},
		{"bad base64", "!!!.???.***"},
		{"header not json", "bm90LWpzb24.eyJ1c2VyX2lkIjoxfQ.c2ln"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Verify(tt.token)
			if !errors.Is(err, apperror.ErrMalformedToken) {
				t.Errorf("Verify(%q) error = %v, want MalformedToken", tt.token, err)
			}
		})
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	c := newTestCodec(t, "test-secret", clockAt(fixedNow))

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(fixedNow),
		},
		UserID: 42,
	})
	tokenString, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}

	_, err = c.Verify(tokenString)
	if !errors.Is(err, apperror.ErrInvalidSignature) {
		t.Errorf("Verify() error = %v, want InvalidSignature", err)
	}
}

func TestVerifyForeignIssuer(t *testing.T) {
	c := newTestCodec(t, "test-secret", clockAt(fixedNow))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(fixedNow),
		},
		UserID: 42,
	})
	tokenString, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}

	_, err = c.Verify(tokenString)
	if !errors.Is(err, apperror.ErrMalformedToken) {
		t.Errorf("Verify() error = %v, want MalformedToken", err)
	}
}

func TestCodecConcurrentUse(t *testing.T) {
	c := newTestCodec(t, "test-secret", clockAt(fixedNow))

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 1; i <= 64; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			token, err := c.Issue(id, "c@x.com", time.Hour)
			if err != nil {
				errs <- err
				return
			}
			p, err := c.Verify(token)
			if err != nil {
				errs <- err
				return
			}
			if p.UserID != id {
				errs <- errors.New("payload user id mismatch")
			}
		}(int64(i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
