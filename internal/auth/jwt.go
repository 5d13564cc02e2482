package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Секрет подписи JWT. По умолчанию случайный на каждый запуск:
// токены живут не дольше процесса, пока секрет не задан конфигурацией.
var jwtSecret []byte

func init() {
	jwtSecret = make([]byte, 32)
	if _, err := rand.Read(jwtSecret); err != nil {
		// Fallback только для разработки
		jwtSecret = []byte("development-secret-key-change-in-production")
	}
}

// Claims представляет полезную нагрузку токена
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// GenerateJWT создаёт подписанный токен для указанного пользователя
func GenerateJWT(username string, isAdmin bool) (string, error) {
	claims := &Claims{
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "map-service",
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateJWT проверяет токен и возвращает данные пользователя
func ValidateJWT(tokenString string) (username string, isValid bool, isAdmin bool) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("неожиданный метод подписи")
		}
		return jwtSecret, nil
	})

	if err != nil || !token.Valid {
		return "", false, false
	}

	return claims.Username, true, claims.IsAdmin
}

// SetJWTSecret устанавливает секрет подписи из конфигурации.
// Ожидает base64-представление не короче 32 байт.
func SetJWTSecret(secret string) error {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return err
	}
	if len(decoded) < 32 {
		return errors.New("секрет должен быть не короче 32 байт")
	}
	jwtSecret = decoded
	return nil
}

// CheckCredentials сравнивает учётные данные с эталоном за постоянное
// время.
func CheckCredentials(user, pass, wantUser, wantPass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass)) == 1
	return userOK && passOK && wantPass != ""
}
