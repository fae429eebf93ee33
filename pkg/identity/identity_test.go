package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{input: "Administrator", want: RoleAdministrator},
		{input: "Instructor", want: RoleInstructor},
		{input: "Student", want: RoleStudent},
		{input: "student", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContext(t *testing.T) {
	ctx := context.Background()

	_, ok := Get(ctx)
	assert.False(t, ok)

	id := &Identity{ID: 3, Email: "a@b.c", Role: RoleStudent}
	ctx = Set(ctx, id)

	got, ok := Get(ctx)
	require.True(t, ok)
	assert.Same(t, id, got)
}

type fakeLoader struct {
	byRole map[Role][]Identity
	err    error
	calls  []Role
}

func (f *fakeLoader) ListIdentities(_ context.Context, role Role) ([]Identity, error) {
	f.calls = append(f.calls, role)
	if f.err != nil && role == RoleStudent {
		return nil, f.err
	}
	return append([]Identity(nil), f.byRole[role]...), nil
}

func TestCache_Reload(t *testing.T) {
	loader := &fakeLoader{byRole: map[Role][]Identity{
		RoleAdministrator: {{ID: 1, Email: "admin@uni.edu"}},
		RoleInstructor:    {{ID: 1, Email: "prof@uni.edu"}, {ID: 2, Email: "ta@uni.edu"}},
		RoleStudent:       {{ID: 1, Email: "kid@uni.edu"}},
	}}

	c := NewCache()
	require.NoError(t, c.Reload(context.Background(), loader))

	assert.Equal(t, []Role{RoleAdministrator, RoleInstructor, RoleStudent}, loader.calls)
	assert.Equal(t, 4, c.Count(RoleAny))
	assert.Equal(t, 2, c.Count(RoleInstructor))

	id, ok := c.FindByEmail("prof@uni.edu")
	require.True(t, ok)
	assert.Equal(t, RoleInstructor, id.Role, "role is stamped from the loader bucket")
}

func TestCache_ReloadFailureKeepsContents(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Insert(Identity{ID: 9, Email: "keep@uni.edu", Role: RoleStudent}))

	loader := &fakeLoader{err: errors.New("connection reset")}
	err := c.Reload(context.Background(), loader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Student")

	_, ok := c.FindByEmail("keep@uni.edu")
	assert.True(t, ok)
}

func TestCache_InsertDuplicate(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Insert(Identity{ID: 1, Email: "x@uni.edu", Role: RoleAdministrator}))

	err := c.Insert(Identity{ID: 1, Email: "x@uni.edu", Role: RoleStudent})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Equal(t, 1, c.Count(RoleAny))
}

func TestCache_Replace(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Insert(Identity{ID: 1, Email: "old@uni.edu", Role: RoleStudent, FirstName: "A"}))
	require.NoError(t, c.Insert(Identity{ID: 2, Email: "other@uni.edu", Role: RoleStudent}))

	require.NoError(t, c.Replace(Identity{ID: 1, Email: "new@uni.edu", Role: RoleStudent, FirstName: "B"}))

	_, ok := c.FindByEmail("old@uni.edu")
	assert.False(t, ok)
	got, ok := c.FindByEmail("new@uni.edu")
	require.True(t, ok)
	assert.Equal(t, "B", got.FirstName)

	err := c.Replace(Identity{ID: 1, Email: "other@uni.edu", Role: RoleStudent})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCache_Remove(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Insert(Identity{ID: 1, Email: "a@uni.edu", Role: RoleInstructor}))
	require.NoError(t, c.Insert(Identity{ID: 1, Email: "b@uni.edu", Role: RoleStudent}))

	c.Remove(RoleStudent, 1)
	c.Remove(RoleStudent, 42)

	_, ok := c.FindByEmail("b@uni.edu")
	assert.False(t, ok)
	_, ok = c.FindByEmail("a@uni.edu")
	assert.True(t, ok, "same id under another role is untouched")
}

func TestCache_FindByEmailIsCaseSensitive(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Insert(Identity{ID: 1, Email: "Jane@uni.edu", Role: RoleStudent}))

	_, ok := c.FindByEmail("jane@uni.edu")
	assert.False(t, ok)
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				email := fmt.Sprintf("w%d-%d@uni.edu", w, i)
				_ = c.Insert(Identity{ID: uint(w*1000 + i), Email: email, Role: RoleStudent})
				_, _ = c.FindByEmail(email)
				if i%2 == 0 {
					c.Remove(RoleStudent, uint(w*1000+i))
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 8*50, c.Count(RoleStudent))
}
