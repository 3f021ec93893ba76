package main

import (
	"os"

	"github.com/guireq/libreria-java-books/cmd/booksclient/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
