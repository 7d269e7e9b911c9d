package main

import (
	"github.com/haguru/myblog/config"
	"github.com/haguru/myblog/internal/app"
)

func main() {
	app, err := app.NewTistoryApp(config.ResolvePath(config.TISTORY_CONFIG_PATH))
	if err != nil {
		panic(err)
	}

	if err := app.Run(); err != nil {
		panic(err)
	}
}
