package authorization

import (
	"context"
	_ "embed"
	"net/http"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads policies from the casbin_rule table and seeds the route
// policies the server relies on.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) IsPublic(ctx context.Context, path, method string) (bool, error) {
	err := s.Authorize(ctx, SubjectAnonymous, path, method)
	switch err {
	case nil:
		return true, nil
	case ErrForbidden:
		return false, nil
	default:
		return false, err
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, subject, path, method string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return ErrInvalidSubject
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrInvalidObject
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(subject, path, method)
	if err != nil {
		return err
	}
	if !allowed {
		if subject != SubjectAnonymous {
			s.log.Warn("access denied",
				zap.String("subject", subject),
				zap.String("path", path),
				zap.String("method", method),
			)
		}
		return ErrForbidden
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Public catalog reads
		{SubjectAnonymous, "/coffees", http.MethodGet},
		{SubjectAnonymous, "/coffees/:id", http.MethodGet},

		// Catalog writes
		{SubjectAPIKey, "/coffees", http.MethodPost},
		{SubjectAPIKey, "/coffees/:id", http.MethodPatch},
		{SubjectAPIKey, "/coffees/:id", http.MethodDelete},
		{SubjectAPIKey, "/coffees/:id/recommend", http.MethodPatch},

		// Event log
		{SubjectAPIKey, "/events", http.MethodGet},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	if _, err := enforcer.AddGroupingPolicy(SubjectAPIKey, SubjectAnonymous); err != nil {
		return err
	}
	return nil
}
