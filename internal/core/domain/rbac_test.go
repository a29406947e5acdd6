package domain_test

import (
	"testing"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewFieldSet_LowercasesNames(t *testing.T) {
	fs := domain.NewFieldSet(domain.SourceJSON, "Email", "PASSWORD")

	assert.True(t, fs.Has(domain.SourceJSON, "email"))
	assert.True(t, fs.Has(domain.SourceJSON, "Password"))
	assert.False(t, fs.Has(domain.SourceJSON, "name"))
}

func TestFieldSet_HasIsSourceScoped(t *testing.T) {
	fs := domain.NewFieldSet(domain.SourceQuery, "email")

	assert.True(t, fs.Has(domain.SourceQuery, "email"))
	assert.False(t, fs.Has(domain.SourceJSON, "email"))
}

func TestFieldSet_HasOnNilSet(t *testing.T) {
	var fs domain.FieldSet
	assert.False(t, fs.Has(domain.SourceJSON, "email"))
}

func TestPermissionSpec_Key(t *testing.T) {
	spec := domain.PermissionSpec{Resource: "Users", Action: domain.ActionUpdate, Operation: "Update"}
	assert.Equal(t, "users:update:update", spec.Key())
}

func TestPermission_Key(t *testing.T) {
	p := domain.Permission{Resource: "roles", Action: domain.ActionCreate, Operation: "create"}
	assert.Equal(t, "roles:create:create", p.Key())
}

func TestUser_IsSuperuser(t *testing.T) {
	u := domain.User{Roles: []domain.Role{{Name: "member"}, {Name: "root", IsSuperuser: true}}}
	assert.True(t, u.IsSuperuser())

	plain := domain.User{Roles: []domain.Role{{Name: "member"}}}
	assert.False(t, plain.IsSuperuser())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", domain.NormalizeEmail("  User@Example.COM  "))
}
