package cli

import (
	"context"
	"fmt"
	"os"
)

// avatarSet uploads a local image file as the current user's avatar.
func (a *App) avatarSet(ctx context.Context, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		p, err := getSimpleText(a.reader, "Path to image file", os.Stdout)
		if err != nil {
			return err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Cannot read %s: %s\n", path, err.Error())
		return err
	}

	key, err := a.session.UploadAvatar(ctx, data)
	if err != nil {
		printAuthError(err)
		return err
	}

	fmt.Println("Avatar updated:", key)
	return nil
}

// avatarShow prints a short-lived download URL for the current avatar.
func (a *App) avatarShow(ctx context.Context) error {
	url, err := a.session.AvatarURL(ctx)
	if err != nil {
		printAuthError(err)
		return err
	}
	if url == "" {
		fmt.Println("No avatar set")
		return nil
	}
	fmt.Println(url)
	return nil
}
