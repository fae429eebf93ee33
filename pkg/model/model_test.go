package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
)

func TestUserPassword(t *testing.T) {
	SetPasswordCost(bcrypt.MinCost)
	t.Cleanup(func() { SetPasswordCost(DefaultPasswordCost) })

	u := User{Email: "ada@example.edu", Password: "secret"}
	require.NoError(t, u.bind())
	assert.Empty(t, u.Password)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.True(t, u.CheckPassword("secret"))
	assert.False(t, u.CheckPassword("Secret"))

	cost, err := bcrypt.Cost([]byte(u.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestUserBind_MissingPassword(t *testing.T) {
	u := User{Email: "ada@example.edu"}
	err := u.bind()
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Missing password", apperr.Message(err))
}

func TestUserEdit_KeepsHashWithoutPassword(t *testing.T) {
	SetPasswordCost(bcrypt.MinCost)
	t.Cleanup(func() { SetPasswordCost(DefaultPasswordCost) })

	u := User{Email: "a@example.edu", Password: "one", FirstName: "A", LastName: "B"}
	require.NoError(t, u.bind())
	hash := u.PasswordHash

	require.NoError(t, u.edit(&User{Email: "b@example.edu", FirstName: "C", LastName: "D"}))
	assert.Equal(t, hash, u.PasswordHash)
	assert.Equal(t, "b@example.edu", u.Email)
	assert.Equal(t, "C", u.FirstName)

	require.NoError(t, u.edit(&User{Email: "b@example.edu", Password: "two"}))
	assert.NotEqual(t, hash, u.PasswordHash)
	assert.True(t, u.CheckPassword("two"))
}

func TestSetPasswordCost_Clamps(t *testing.T) {
	t.Cleanup(func() { SetPasswordCost(DefaultPasswordCost) })

	SetPasswordCost(1)
	assert.Equal(t, int32(bcrypt.MinCost), passwordCost.Load())
	SetPasswordCost(99)
	assert.Equal(t, int32(bcrypt.MaxCost), passwordCost.Load())
}

func TestIdentities(t *testing.T) {
	user := User{Email: "x@example.edu", PasswordHash: "h", FirstName: "X", LastName: "Y"}

	a := &Admin{Base: Base{ID: 1}, User: user}
	i := &Instructor{Base: Base{ID: 2}, User: user}
	s := &Student{Base: Base{ID: 3}, User: user}

	assert.Equal(t, identity.RoleAdministrator, a.Identity().Role)
	assert.Equal(t, identity.RoleInstructor, i.Identity().Role)
	assert.Equal(t, identity.RoleStudent, s.Identity().Role)
	assert.Equal(t, uint(3), s.Identity().ID)
	assert.Equal(t, "h", s.Identity().PasswordHash)
}

func TestCurriculumOffered(t *testing.T) {
	c := CurriculumCourse{Year: 2, Semester: 1}

	assert.True(t, c.Offered(2, 1))
	assert.True(t, c.Offered(3, 3))
	assert.False(t, c.Offered(1, 1))
	assert.False(t, c.Offered(2, 2))
}

func TestSectionHasRoom(t *testing.T) {
	s := Section{Capacity: 2}
	assert.True(t, s.HasRoom(0))
	assert.True(t, s.HasRoom(1))
	assert.False(t, s.HasRoom(2))
	assert.False(t, (&Section{}).HasRoom(0))
}

func TestTimeIndexCheck(t *testing.T) {
	tests := []struct {
		name    string
		slot    TimeIndex
		wantErr bool
	}{
		{name: "valid", slot: TimeIndex{Day: 0, StartTime: 9, EndTime: 10}},
		{name: "single hour", slot: TimeIndex{Day: 6, StartTime: 9, EndTime: 9}},
		{name: "day too large", slot: TimeIndex{Day: 7, StartTime: 9, EndTime: 10}, wantErr: true},
		{name: "negative day", slot: TimeIndex{Day: -1}, wantErr: true},
		{name: "reversed", slot: TimeIndex{Day: 2, StartTime: 11, EndTime: 10}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.slot.check()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAllModelsAreEntities(t *testing.T) {
	for _, m := range All() {
		_, ok := m.(interface{ GetID() uint })
		assert.True(t, ok, "%T", m)
	}
}
