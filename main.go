package main

import (
	"github.com/haguru/myblog/config"
	"github.com/haguru/myblog/internal/app"
)

func main() {
	// create and initialize the registration service
	app, err := app.NewBlogApp(config.ResolvePath(config.CONFIG_PATH))
	if err != nil {
		panic(err)
	}

	// serve until SIGINT or SIGTERM
	if err := app.Run(); err != nil {
		panic(err)
	}
}
