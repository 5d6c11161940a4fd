package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT(secret []byte) {
	TokenAuth = jwtauth.New("HS256", secret, nil)
}

// GenerateToken signs a token bound to a stored session. The token never
// outlives the session it points at.
func GenerateToken(sessionID, judgeID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sid":      sessionID,
		"judge_id": judgeID,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

func GetSessionIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["sid"].(string)
	if !ok || id == "" {
		return "", errors.New("sid claim is missing or not a string")
	}
	return id, nil
}

func GetJudgeIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["judge_id"].(string)
	if !ok || id == "" {
		return "", errors.New("judge_id claim is missing or not a string")
	}
	return id, nil
}
