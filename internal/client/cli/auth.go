package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"profilekeeper/internal/client/api"
	"profilekeeper/internal/common"
)

// getSimpleText, getPassword and getYesNo are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getYesNo = GetYesNo

// Register prompts the user for a display name, email, password and
// remember-me choice and attempts to create a new account.
//
// On success it prints a greeting and returns nil. The password byte slice
// is securely wiped before returning. Any I/O or service error is returned
// unchanged.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter display name", os.Stdout)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	rememberMe, err := getYesNo(a.reader, "Stay signed in?", true, os.Stdout)
	if err != nil {
		return err
	}

	rec, err := a.session.Register(ctx, name, email, string(password), rememberMe)
	if err != nil {
		printAuthError(err)
		return err
	}

	a.setMode(ModeOnline)
	fmt.Printf("Welcome, %s!\n", rec.Name)
	return nil
}

// Login prompts the user for credentials and tries to authenticate. On
// success the connectivity mode flips to online. A rejected attempt prints
// the server's own message; an unreachable server flips the mode to offline.
//
// The password is securely wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	rememberMe, err := getYesNo(a.reader, "Stay signed in?", true, os.Stdout)
	if err != nil {
		return err
	}

	rec, err := a.session.Login(ctx, email, string(password), rememberMe)
	if err != nil {
		printAuthError(err)
		if errors.Is(err, api.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return err
	}

	a.setMode(ModeOnline)
	log.Printf("Login successful")
	fmt.Printf("Welcome back, %s!\n", rec.Name)
	return nil
}

// Logout clears the persisted session. Safe to call when already logged out.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

// printAuthError shows the failure the way the server phrased it when it did,
// and a connectivity hint otherwise.
func printAuthError(err error) {
	var remote *api.RemoteError
	switch {
	case errors.Is(err, api.ErrUnavailable):
		fmt.Println("Server unavailable, try again later")
	case errors.As(err, &remote):
		fmt.Println(remote.Message)
	default:
		fmt.Printf("Error: %s\n", err.Error())
	}
}
