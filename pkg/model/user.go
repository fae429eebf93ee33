package model

import (
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
)

// DefaultPasswordCost is the bcrypt work factor used unless configured.
const DefaultPasswordCost = 8

var passwordCost atomic.Int32

func init() {
	passwordCost.Store(DefaultPasswordCost)
}

// SetPasswordCost sets the bcrypt work factor for passwords hashed from now on.
func SetPasswordCost(cost int) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	passwordCost.Store(int32(cost))
}

// User holds the credentials and name shared by every identity model.
// Password is accepted on input only; the stored column is PasswordHash.
type User struct {
	Email        string `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	Password     string `gorm:"-" json:"password,omitempty" entity:"writeonly"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	FirstName    string `gorm:"not null" json:"firstName" validate:"required"`
	LastName     string `gorm:"not null" json:"lastName" validate:"required"`
}

// SetPassword hashes password into PasswordHash.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), int(passwordCost.Load()))
	if err != nil {
		return apperr.Validation("password cannot be hashed: %v", err)
	}
	u.PasswordHash = string(hash)
	u.Password = ""
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) bind() error {
	if u.Password == "" {
		return apperr.Validation("Missing password")
	}
	return u.SetPassword(u.Password)
}

func (u *User) edit(from *User) error {
	u.Email = from.Email
	u.FirstName = from.FirstName
	u.LastName = from.LastName
	if from.Password != "" {
		return u.SetPassword(from.Password)
	}
	return nil
}

func (u *User) identity(id uint, role identity.Role) identity.Identity {
	return identity.Identity{
		ID:           id,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         role,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
	}
}
