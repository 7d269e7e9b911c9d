package app

import (
	"github.com/haguru/myblog/internal/routes"
)

// NewBlogApp creates the myblog service: the public registration API behind
// the configured access policy.
func NewBlogApp(configPath string) (*App, error) {
	return build(configPath, mountBlog)
}

func mountBlog(app *App) error {
	return app.addRoute(routes.RegisterRouteAPI, app.rateLimited(app.Route.Register))
}
