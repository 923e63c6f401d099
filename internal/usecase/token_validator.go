package usecase

import (
	"petcare-booking/internal/domain/user"
	"petcare-booking/internal/pkg/jwt"
)

// TokenValidator turns a bearer token into the requester it identifies.
type TokenValidator interface {
	ValidateToken(tokenString string) (user.Requester, error)
}

type tokenValidatorImpl struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return &tokenValidatorImpl{jwtService: jwtService}
}

func (t *tokenValidatorImpl) ValidateToken(tokenString string) (user.Requester, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return user.Requester{}, err
	}
	id, err := claims.RequesterID()
	if err != nil {
		return user.Requester{}, err
	}
	role, err := user.NewRole(claims.Role)
	if err != nil {
		return user.Requester{}, err
	}
	return user.NewRequester(id, role), nil
}
