package main

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const rejoinKeyTTL = time.Minute * 2

const rejoinKeySendFreq = time.Minute

// RejoinJWT issues short-lived keys that let a dropped client re-enter the
// room it was in, provided a seat is still free. The key never reserves the
// seat; disconnect cleanup runs regardless.
type RejoinJWT struct {
	jwtSecret string
}

func NewRejoinJWT(jwtSecret string) *RejoinJWT {
	return &RejoinJWT{jwtSecret}
}

func (r RejoinJWT) GenerateRejoinKey(roomID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"roomId": roomID, "exp": jwt.NewNumericDate(time.Now().Add(rejoinKeyTTL))})
	return token.SignedString([]byte(r.jwtSecret))
}

// RoomIDFromRejoinKey returns the room claim of a valid key, or "" when the
// key is missing, expired or tampered with.
func (r RejoinJWT) RoomIDFromRejoinKey(tokenString string) string {
	if tokenString == "" {
		return ""
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(r.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		if roomID, ok := claims["roomId"].(string); ok {
			return roomID
		}
	}
	return ""
}
