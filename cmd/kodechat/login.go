package kodechat

import (
	"context"
	"fmt"

	"github.com/shellkode/kodechat/pkg/ui"
)

func handleLoginCommand() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if cred, err := a.auth.Current(); err == nil {
		who := cred.Email
		if who == "" {
			who = cred.UserID
		}
		replace, err := ui.Confirm(fmt.Sprintf("Already logged in as %s. Log in again?", who))
		if err != nil || !replace {
			return err
		}
	}

	token, err := ui.ReadSecret(
		"Google ID token",
		"Paste the ID token from your Google sign-in.")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.API.RequestTimeout)
	defer cancel()

	result, err := a.client.Login(ctx, token)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := a.auth.Save(result.Token.AccessToken, result.Token.TokenType, result.Token.ExpiresIn); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	who := result.User.Name
	if who == "" {
		who = result.User.Email
	}
	fmt.Printf("Logged in as %s\n", who)
	return nil
}

func handleLogoutCommand() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	userID := a.auth.UserID()
	if userID == "" {
		fmt.Println("Not logged in.")
		return a.auth.Logout()
	}
	if err := a.auth.Logout(); err != nil {
		return err
	}

	// Synced history belongs to the account, drop it with the login.
	if archive, archErr := a.openArchive(); archErr == nil {
		defer archive.Close()
		if err := archive.ClearUser(context.Background(), userID); err != nil {
			a.log.Warn().Err(err).Msg("failed to clear archived history")
		}
	}

	fmt.Println("Logged out.")
	return nil
}
