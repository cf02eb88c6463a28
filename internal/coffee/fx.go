package coffee

import (
	"github.com/smallbiznis/coffeeshop/internal/coffee/repository"
	"github.com/smallbiznis/coffeeshop/internal/coffee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("coffee.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
