package rpc

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"ubichain/config"
	"ubichain/crypto"
)

// authenticator resolves the caller of a mutating request from an HS256
// bearer token. The token subject is the caller's address.
type authenticator struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

func newAuthenticator(cfg config.Auth) (*authenticator, error) {
	secret := strings.TrimSpace(cfg.HMACSecret)
	if secret == "" {
		return nil, errors.New("rpc: auth secret required")
	}
	return &authenticator{
		secret:   []byte(secret),
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: strings.TrimSpace(cfg.Audience),
		leeway:   cfg.ClockSkew,
	}, nil
}

func (a *authenticator) caller(r *http.Request) ([20]byte, *RPCError) {
	token := extractBearer(r.Header.Get("Authorization"))
	if token == "" {
		return [20]byte{}, unauthorized("missing bearer token")
	}
	claims, err := a.parseToken(token)
	if err != nil {
		return [20]byte{}, unauthorized("invalid token")
	}
	if err := validateClaims(claims, a.issuer, a.audience); err != nil {
		return [20]byte{}, unauthorized(err.Error())
	}
	subject, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return [20]byte{}, unauthorized("token subject required")
	}
	addr, err := crypto.ParseAddress(subject)
	if err != nil {
		return [20]byte{}, unauthorized(fmt.Sprintf("token subject: %v", err))
	}
	return addr, nil
}

func (a *authenticator) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(a.leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims not map")
	}
	return claims, nil
}

func validateClaims(claims jwt.MapClaims, issuer, audience string) error {
	if issuer != "" {
		if value, err := claims.GetIssuer(); err != nil || value != issuer {
			return errors.New("issuer mismatch")
		}
	}
	if audience != "" {
		values, err := claims.GetAudience()
		if err != nil {
			return errors.New("audience mismatch")
		}
		for _, value := range values {
			if value == audience {
				return nil
			}
		}
		return errors.New("audience mismatch")
	}
	return nil
}

func extractBearer(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func unauthorized(message string) *RPCError {
	return &RPCError{Code: codeUnauthorized, Message: message}
}
