// Package types holds values shared by the client subcommands.
package types

import (
	"context"
	"errors"

	"payfamily/internal/app/client"
)

type ctxKey string

const ClientAppKey ctxKey = "app"

var ErrNoApp = errors.New("application is not initialized")

func WithApp(ctx context.Context, app *client.App) context.Context {
	return context.WithValue(ctx, ClientAppKey, app)
}

// App returns the application stored by the root command.
func App(ctx context.Context) (*client.App, error) {
	app, ok := ctx.Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, ErrNoApp
	}
	return app, nil
}

// JSONOutput is set by the root --json flag.
var JSONOutput bool
