package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	DMs(ctx context.Context) error
	Messages(ctx context.Context, args []string) error
	Glytches(ctx context.Context) error
	Channels(ctx context.Context, args []string) error
	Gifs(ctx context.Context, args []string) error
	Resolve(ctx context.Context, args []string) error
}

const (
	helpAnonymous = "Available commands: register, login, gifs <query>, exit"
	helpSignedIn  = "Available commands: whoami, dms, messages <conversation id>, glytches, " +
		"channels <glytch id>, gifs <query>, resolve <attachment>, logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
//
// The first token of a line is the command and the rest are its arguments.
// Errors returned by handlers are printed and the loop keeps going. The
// loop exits on EOF or when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("glytch%s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "whoami":
			cmdErr = a.WhoAmI(ctx)

		case "dms":
			cmdErr = a.DMs(ctx)

		case "messages":
			cmdErr = a.Messages(ctx, args)

		case "glytches":
			cmdErr = a.Glytches(ctx)

		case "channels":
			cmdErr = a.Channels(ctx, args)

		case "gifs":
			cmdErr = a.Gifs(ctx, args)

		case "resolve":
			cmdErr = a.Resolve(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}
