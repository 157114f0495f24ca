package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

// whoami prints the current user joined from the session and the local
// cache, or a hint when nobody is signed in.
func (a *App) whoami(ctx context.Context) error {
	rec, err := a.session.GetCurrentUser(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Println("Not signed in")
		return nil
	}

	fmt.Printf("%s <%s>\n", rec.Name, rec.Email)
	if rec.LastLoginAt != nil {
		fmt.Printf("Last login: %s\n", rec.LastLoginAt.Local().Format("2006-01-02 15:04:05"))
	}
	if rec.AvatarRef != "" {
		fmt.Printf("Avatar: %s\n", rec.AvatarRef)
	}
	return nil
}

// list prints every locally known account, newest first.
func (a *App) list(ctx context.Context) error {
	rows := a.session.AllUsers()
	if len(rows) == 0 {
		fmt.Println("No known accounts")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tLAST LOGIN")
	for _, u := range rows {
		last := "-"
		if u.LastLoginAt != nil {
			last = u.LastLoginAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.Name, u.Email, last)
	}
	return w.Flush()
}

// theme reads or updates the stored UI theme preference.
func (a *App) theme(ctx context.Context, args []string) error {
	if len(args) == 0 {
		v, err := a.store.GetPreference(ctx, "theme")
		if err != nil {
			return err
		}
		if v == "" {
			v = "default"
		}
		fmt.Println("Theme:", v)
		return nil
	}
	if err := a.store.SetPreference(ctx, "theme", args[0]); err != nil {
		return err
	}
	fmt.Println("Theme set to", args[0])
	return nil
}
