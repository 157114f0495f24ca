package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if st := a.store.Current(); st.Authenticated && st.DisplayName != "" {
		s = st.DisplayName + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to ProfileKeeper CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	go func() {
		a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}()

	for {
		fmt.Printf("pk %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: whoami, (l)ist, avatar <file>, avatar-url, theme [value], logout, exit")
			} else {
				fmt.Println("Available commands: register, login, theme [value], exit")
			}

		case "register":
			a.Register(ctx)
		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "whoami":
			a.whoami(ctx)
		case "l", "list":
			a.list(ctx)
		case "avatar":
			a.avatarSet(ctx, args)
		case "avatar-url":
			a.avatarShow(ctx)
		case "theme":
			a.theme(ctx, args)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}
