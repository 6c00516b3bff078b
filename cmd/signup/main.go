package main

import (
	"context"
	"log"
	"os"

	"github.com/dalemusser/signup/app"
	"github.com/dalemusser/signup/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:], bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
