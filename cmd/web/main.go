// Command web runs the data engine HTTP server consumed by the dashboard
// frontend.
package main

import (
	"context"
	"log/slog"
	"os"

	"plapulse/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		application.Logger.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
