package unlock

import (
	"go.uber.org/fx"

	"github.com/borealgeo/arvault/internal/storage"
)

// Module provides the unlock domain
var Module = fx.Module("unlock",
	fx.Provide(func(c *storage.Client) Store { return c }),
	fx.Provide(NewService),
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
