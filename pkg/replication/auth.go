package replication

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// peerClaims is the JWT payload exchanged between peers: the bearer's
// replica identity, exactly as the original implementation's
// `dict(peer=...)` claim.
type peerClaims struct {
	Peer string `json:"peer"`
	jwt.RegisteredClaims
}

// signToken produces an HS256 bearer token asserting hostID, signed with
// secret.
func signToken(hostID, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, peerClaims{Peer: hostID})
	return token.SignedString([]byte(secret))
}

// verifyToken validates tokenString against secret and returns the
// asserted peer identity.
func verifyToken(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &peerClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("replication: unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("replication: invalid peer token: %w", err)
	}
	claims, ok := token.Claims.(*peerClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("replication: invalid peer token claims")
	}
	return claims.Peer, nil
}
