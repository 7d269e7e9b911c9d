package app

import (
	"errors"

	"github.com/haguru/myblog/internal/routes"
)

// NewTistoryApp creates the tistory service: browser form login, a public
// home page and role protected areas.
func NewTistoryApp(configPath string) (*App, error) {
	return build(configPath, mountTistory)
}

func mountTistory(app *App) error {
	formLogin := app.Policy.FormLogin()
	if formLogin == nil {
		return errors.New(ErrFormLoginRequired)
	}

	if err := app.addRoute(formLogin.LoginPage, app.Route.LoginPage); err != nil {
		return err
	}
	if err := app.addRoute(formLogin.ProcessingURL, app.rateLimited(app.Route.LoginProcess)); err != nil {
		return err
	}
	return app.addRoute(routes.HomeRouteAPI, app.Route.Home)
}
