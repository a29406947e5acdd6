package services_test

import (
	"testing"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowAll_NeverDenies(t *testing.T) {
	resolver := services.AllowAll()
	err := resolver(domain.EffectivePermission{}, &domain.RequestContext{JSONParams: map[string]any{"password": "x"}})
	assert.Nil(t, err)
}

func TestDenyList_RejectsDeniedField(t *testing.T) {
	resolver := services.DenyList(domain.SourceJSON)
	perm := domain.EffectivePermission{DenyFields: domain.NewFieldSet(domain.SourceJSON, "password")}
	rc := &domain.RequestContext{JSONParams: map[string]any{"password": "new-pass", "email": "a@b.com"}}

	err := resolver(perm, rc)
	require.NotNil(t, err)
	assert.Equal(t, "password", err.Context["field"])
}

func TestDenyList_AllowsUndeniedField(t *testing.T) {
	resolver := services.DenyList(domain.SourceJSON)
	perm := domain.EffectivePermission{DenyFields: domain.NewFieldSet(domain.SourceJSON, "password")}
	rc := &domain.RequestContext{JSONParams: map[string]any{"email": "a@b.com"}}

	assert.Nil(t, resolver(perm, rc))
}

func TestAllowList_RejectsFieldNotInAllowSet(t *testing.T) {
	resolver := services.AllowList(domain.SourceQuery)
	perm := domain.EffectivePermission{AllowFields: domain.NewFieldSet(domain.SourceQuery, "email")}
	rc := &domain.RequestContext{QueryParams: map[string][]string{"level": {"5"}}}

	err := resolver(perm, rc)
	require.NotNil(t, err)
	assert.Equal(t, "level", err.Context["field"])
}

func TestMixed_DenyWinsOverAllow(t *testing.T) {
	resolver := services.Mixed(domain.SourceJSON)
	perm := domain.EffectivePermission{
		AllowFields: domain.NewFieldSet(domain.SourceJSON, "password"),
		DenyFields:  domain.NewFieldSet(domain.SourceJSON, "password"),
	}
	rc := &domain.RequestContext{JSONParams: map[string]any{"password": "x"}}

	err := resolver(perm, rc)
	require.NotNil(t, err)
}

func TestByUserID_AllowsOwnResource(t *testing.T) {
	resolver := services.ByUserID()
	userID := uuid.New()
	rc := &domain.RequestContext{
		User:       &domain.User{ID: userID},
		PathParams: map[string]string{"user_id": userID.String()},
	}

	assert.Nil(t, resolver(rc, domain.ScopeOwn, nil))
}

func TestByUserID_RejectsOthersResource(t *testing.T) {
	resolver := services.ByUserID()
	rc := &domain.RequestContext{
		User:       &domain.User{ID: uuid.New()},
		PathParams: map[string]string{"user_id": uuid.New().String()},
	}

	assert.NotNil(t, resolver(rc, domain.ScopeOwn, nil))
}

func TestByUserID_ScopeAnyBypassesCheck(t *testing.T) {
	resolver := services.ByUserID()
	rc := &domain.RequestContext{User: &domain.User{ID: uuid.New()}, PathParams: map[string]string{"user_id": uuid.New().String()}}

	assert.Nil(t, resolver(rc, domain.ScopeAny, nil))
}

func TestByUserEmail_RejectsMismatchedEmail(t *testing.T) {
	resolver := services.ByUserEmail()
	rc := &domain.RequestContext{
		User:        &domain.User{Email: "me@example.com"},
		QueryParams: map[string][]string{"email": {"someone-else@example.com"}},
	}

	assert.NotNil(t, resolver(rc, domain.ScopeOwn, nil))
}

func TestByUserEmail_AllowsOwnEmail(t *testing.T) {
	resolver := services.ByUserEmail()
	rc := &domain.RequestContext{
		User:        &domain.User{Email: "me@example.com"},
		QueryParams: map[string][]string{"email": {"me@example.com"}},
	}

	assert.Nil(t, resolver(rc, domain.ScopeOwn, nil))
}

func TestRouteRules_NoDuplicateMethodPatternPairs(t *testing.T) {
	seen := map[string]bool{}
	for _, rule := range services.RouteRules() {
		key := rule.Method + " " + rule.Pattern
		require.False(t, seen[key], "duplicate route rule for %s", key)
		seen[key] = true
	}
}

func TestRouteRules_UpdateUserDeclaresPasswordAndEmailAsJSONFields(t *testing.T) {
	for _, rule := range services.RouteRules() {
		if rule.Method == "PATCH" && rule.Pattern == "/private/users/{user_id}" {
			assert.True(t, rule.Permission.Fields.Has(domain.SourceJSON, "email"))
			assert.True(t, rule.Permission.Fields.Has(domain.SourceJSON, "password"))
			return
		}
	}
	t.Fatal("PATCH /private/users/{user_id} rule not found")
}

func TestRouteTable_IndexesEveryRule(t *testing.T) {
	rules := services.RouteRules()
	table := services.RouteTable()
	assert.Len(t, table, len(rules))
}
