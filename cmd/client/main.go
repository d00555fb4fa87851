// Package main runs the interactive GophShop client on top of local storage.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"

	"github.com/atinyakov/GophShop/internal/app"
	"github.com/atinyakov/GophShop/internal/client/shell"
	"github.com/atinyakov/GophShop/internal/config"
	"github.com/atinyakov/GophShop/internal/logger"
	"go.uber.org/zap"
)

var (
	version   string
	buildDate string
)

func main() {
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	options, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(2)
	}

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()

	ctx := context.Background()
	stores, err := app.Open(ctx, options, log.Log)
	if err != nil {
		log.Log.Fatal("cannot open storage", zap.Error(err))
	}
	defer func() { _ = stores.Close() }()

	if u, ok := stores.Sessions.User(); ok {
		fmt.Printf("Welcome back, %s!\n", u.Name)
	}
	fmt.Println("Type 'help' for a list of commands.")
	shell.New(os.Stdin, os.Stdout, stores.Sessions, stores.Carts, stores.Catalog).Run(ctx)
}
