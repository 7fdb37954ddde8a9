package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotLoggedIn = errors.New("not logged in")

func (a *App) credentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Register creates an account and keeps the returned token, so the user is
// signed in afterwards.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	fullName, err := getSimpleText(a.reader, "Enter full name (optional)", a.out)
	if err != nil {
		return err
	}

	tok, err := a.api.Register(ctx, email, password, fullName)
	if err != nil {
		fmt.Fprintf(a.out, "Registration failed: %s\n", client.Detail(err))
		return err
	}

	a.token, a.email = tok.AccessToken, email
	fmt.Fprintln(a.out, "Success!")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	tok, err := a.api.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintf(a.out, "Login unsuccessful: %s\n", client.Detail(err))
		return err
	}

	a.token, a.email = tok.AccessToken, email
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Me prints the signed-in profile. An expired or revoked token signs the
// user out locally.
func (a *App) Me(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Please log in first")
		return errNotLoggedIn
	}

	u, err := a.api.Me(ctx, a.token)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %s\n", client.Detail(err))
		if errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrorForbidden) {
			a.token, a.email = "", ""
		}
		return err
	}

	fmt.Fprintf(a.out, "ID:      %s\n", u.ID)
	fmt.Fprintf(a.out, "Email:   %s\n", u.Email)
	if u.FullName != nil {
		fmt.Fprintf(a.out, "Name:    %s\n", *u.FullName)
	}
	if u.Picture != nil {
		fmt.Fprintf(a.out, "Picture: %s\n", *u.Picture)
	}
	fmt.Fprintf(a.out, "Active:  %t\n", u.IsActive)
	return nil
}

// Logout tells the server and always drops the local token.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return nil
	}
	err := a.api.Logout(ctx, a.token)
	a.token, a.email = "", ""
	if err != nil && !errors.Is(err, common.ErrorUnauthorized) {
		fmt.Fprintf(a.out, "Logout: %s\n", client.Detail(err))
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
