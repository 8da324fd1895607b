package models

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Usuario is a registered user of the vaccine tracker.
// The password is kept only as a bcrypt hash and never serialised.
type Usuario struct {
	ID        int    `json:"id" badgerhold:"key"`
	Nome      string `json:"nome"`
	Email     string `json:"email" badgerhold:"index"`
	IsAdmin   bool   `json:"is_admin"`
	SenhaHash []byte `json:"-"`
}

// UsuarioCreate is the signup payload (POST /usuarios/)
type UsuarioCreate struct {
	Nome  string `json:"nome" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Senha string `json:"senha" validate:"required,min=6"`
}

// Validate validates the signup payload
func (u *UsuarioCreate) Validate() error {
	return validate.Struct(u)
}

// UsuarioUpdate is a partial update (PUT /usuarios/{id})
type UsuarioUpdate struct {
	Nome    *string `json:"nome,omitempty" validate:"omitempty,min=1"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	IsAdmin *bool   `json:"is_admin,omitempty"`
}

// Validate validates the update payload
func (u *UsuarioUpdate) Validate() error {
	return validate.Struct(u)
}

// Apply copies the set fields onto the user
func (u *UsuarioUpdate) Apply(user *Usuario) {
	if u.Nome != nil {
		user.Nome = *u.Nome
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.IsAdmin != nil {
		user.IsAdmin = *u.IsAdmin
	}
}

// LoginResponse is returned by POST /usuarios/login
type LoginResponse struct {
	Usuario
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HashSenha hashes a password. Fixture users are re-hashed on every reset, so the minimum cost is used.
func HashSenha(senha string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(senha), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// CheckSenha reports whether the password matches the stored hash
func (u *Usuario) CheckSenha(senha string) bool {
	if len(u.SenhaHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(u.SenhaHash, []byte(senha)) == nil
}
