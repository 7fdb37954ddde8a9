package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

// apiClient is the part of client.HTTPClient the CLI uses.
type apiClient interface {
	Register(ctx context.Context, email string, password []byte, fullName string) (*client.Token, error)
	Login(ctx context.Context, email string, password []byte) (*client.Token, error)
	Me(ctx context.Context, accessToken string) (*client.User, error)
	Logout(ctx context.Context, accessToken string) error
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	api    apiClient
	reader *bufio.Reader
	out    io.Writer

	token string
	email string
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    client.NewHTTPClient(c.ServerURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) status() string {
	if a.email == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.email)
}

// Run greets the user, checks the server is reachable and starts the REPL.
// It returns when the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Auth CLI (type 'help' for commands)")
	if err := a.api.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "Warning: server at %s is not reachable: %s\n", a.config.ServerURL, client.Detail(err))
	}

	runREPL(ctx, a, a.status, a.reader, a.out)
	a.token = ""
}
