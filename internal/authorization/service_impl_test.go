package authorization

import (
	"context"
	"net/http"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAuthorizationService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer}), db
}

func TestPublicRoutes(t *testing.T) {
	svc, _ := setupAuthorizationService(t)
	ctx := context.Background()

	cases := []struct {
		path   string
		method string
		public bool
	}{
		{"/coffees", http.MethodGet, true},
		{"/coffees/1234", http.MethodGet, true},
		{"/coffees", http.MethodPost, false},
		{"/coffees/1234", http.MethodPatch, false},
		{"/coffees/1234", http.MethodDelete, false},
		{"/coffees/1234/recommend", http.MethodPatch, false},
		{"/coffees/1234/recommend", http.MethodGet, false},
		{"/events", http.MethodGet, false},
	}
	for _, tc := range cases {
		public, err := svc.IsPublic(ctx, tc.path, tc.method)
		require.NoError(t, err)
		assert.Equal(t, tc.public, public, "%s %s", tc.method, tc.path)
	}
}

func TestAPIKeyInheritsPublicAccess(t *testing.T) {
	svc, _ := setupAuthorizationService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, SubjectAPIKey, "/coffees", "get"))
	assert.NoError(t, svc.Authorize(ctx, SubjectAPIKey, "/coffees/99/recommend", http.MethodPatch))
	assert.NoError(t, svc.Authorize(ctx, SubjectAPIKey, "/events", http.MethodGet))
	assert.ErrorIs(t, svc.Authorize(ctx, SubjectAPIKey, "/events", http.MethodDelete), ErrForbidden)
}

func TestAuthorizeRejectsBlankInput(t *testing.T) {
	svc, _ := setupAuthorizationService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, " ", "/coffees", http.MethodGet), ErrInvalidSubject)
	assert.ErrorIs(t, svc.Authorize(ctx, SubjectAnonymous, "", http.MethodGet), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, SubjectAnonymous, "/coffees", ""), ErrInvalidAction)
}

func TestSeedingIsIdempotent(t *testing.T) {
	_, db := setupAuthorizationService(t)

	_, err := NewEnforcer(db)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Table("casbin_rule").Count(&count).Error)
	assert.EqualValues(t, 8, count)
}
