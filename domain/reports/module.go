package reports

import (
	"go.uber.org/fx"

	"github.com/borealgeo/arvault/internal/fetch"
	"github.com/borealgeo/arvault/internal/storage"
)

// Module provides the reports domain
var Module = fx.Module("reports",
	fx.Provide(NewTable),
	fx.Provide(func(c *storage.Client) Store { return c }),
	fx.Provide(func(f *fetch.Fetcher) Getter { return f }),
	fx.Provide(NewService),
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
