package smtp

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"telegram-email-bot/internal/domain"
)

// Unsubscribe builds and verifies the signed one-click unsubscribe links
// embedded in List-Unsubscribe headers.
type Unsubscribe struct {
	baseURL string
	key     []byte
}

// NewUnsubscribe returns nil when no base URL is configured, which disables
// the HTTP variant of the header.
func NewUnsubscribe(baseURL, key string) *Unsubscribe {
	if baseURL == "" || key == "" {
		return nil
	}
	return &Unsubscribe{baseURL: baseURL, key: []byte(key)}
}

func (u *Unsubscribe) URL(email string) (string, error) {
	claims := jwt.MapClaims{
		"sub": email,
		"iat": time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.key)
	if err != nil {
		return "", err
	}
	sep := "?"
	if strings.Contains(u.baseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%stoken=%s", u.baseURL, sep, url.QueryEscape(token)), nil
}

// Verify returns the address a token was issued for.
func (u *Unsubscribe) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return u.key, nil
	})
	if err != nil || !parsed.Valid {
		return "", domain.ErrInvalidArgument
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrInvalidArgument
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", domain.ErrInvalidArgument
	}
	return sub, nil
}
