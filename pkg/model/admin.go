package model

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
)

func init() {
	entity.RegisterIdentity(identity.RoleAdministrator, &Admin{})
	entity.RegisterIdentity(identity.RoleInstructor, &Instructor{})
	entity.RegisterIdentity(identity.RoleStudent, &Student{})
}

type Admin struct {
	Base
	User
}

func (Admin) TableName() string {
	return "admins"
}

func (a *Admin) Bind(_ context.Context, _ *gorm.DB) error {
	return a.User.bind()
}

func (a *Admin) Edit(_ context.Context, _ *gorm.DB, from *Admin) error {
	return a.User.edit(&from.User)
}

func (a *Admin) Identity() identity.Identity {
	return a.User.identity(a.ID, identity.RoleAdministrator)
}
