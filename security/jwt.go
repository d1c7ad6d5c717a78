package security

import (
	"errors"
	"github.com/golang-jwt/jwt/v5"
	"real-time-messenger/config/common"
	"real-time-messenger/entity"
	"time"
)

const (
	claimUserID = "user_id"
	audience    = "real-time-messenger"
)

type JWT struct {
	secret []byte
	expiry time.Duration
}

func NewJWT(config *common.Config) *JWT {
	return NewJWTWithSecret(config.GetJwtConfig(), config.GetJwtExpiry())
}

func NewJWTWithSecret(secret []byte, expiry time.Duration) *JWT {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &JWT{secret: secret, expiry: expiry}
}

func (j *JWT) SigningKey() []byte {
	return j.secret
}

func (j *JWT) SigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS512
}

func (j *JWT) GenerateToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		claimUserID: user.ID,
		"aud":       audience,
		"iss":       audience,
		"iat":       now.Unix(),
		"exp":       now.Add(j.expiry).Unix(),
	}

	token := jwt.NewWithClaims(j.SigningMethod(), claims)
	return token.SignedString(j.secret)
}

func (j *JWT) VerifyJwtToken(token string) (jwt.MapClaims, error) {
	tokenParse, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.secret, nil
	}, jwt.WithAudience(audience), jwt.WithIssuer(audience), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	if claims, ok := tokenParse.Claims.(jwt.MapClaims); ok && tokenParse.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

func (j *JWT) GetUserIdFromToken(token string) (string, error) {
	claims, err := j.VerifyJwtToken(token)
	if err != nil {
		return "", err
	}
	return UserIDFromClaims(claims)
}

// UserIDFromClaims reads the user id placed in the token by GenerateToken.
func UserIDFromClaims(claims jwt.MapClaims) (string, error) {
	userID, ok := claims[claimUserID].(string)
	if !ok || userID == "" {
		return "", errors.New("token carries no user id")
	}
	return userID, nil
}
