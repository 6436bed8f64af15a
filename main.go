package main

import (
	"os"

	"github.com/postdeck/postdeck/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
