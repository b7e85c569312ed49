package main

import (
	"context"
	"log/slog"
)

func main() {
	app := mustBootstrapRebookAPI()
	defer app.Close()

	slog.Info("rebook-api starting", "http_addr", app.opts.httpAddr)
	if err := app.Run(); err != nil && err != context.Canceled {
		panic(err)
	}
}
