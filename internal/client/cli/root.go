package cli

import (
	"context"
	"fmt"
)

func (a *App) displayName() string {
	if a.session == nil {
		return ""
	}
	if name := a.session.User.Username(); name != "" {
		return name
	}
	return a.session.User.Email
}

func (a *App) getStatus() string {
	if a.session == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.displayName())
}

// Root prints the greeting and runs the REPL on the app's input until exit or EOF.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to Glytch CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
