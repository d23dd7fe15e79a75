package kodechat

import (
	"context"
	"fmt"
	"time"

	"github.com/shellkode/kodechat/pkg/store"
	"github.com/shellkode/kodechat/pkg/ui"
)

func handleSessionsCommand(args []string) error {
	if len(args) < 1 || args[0] == "-h" || args[0] == "--help" {
		printSessionsUsage()
		return nil
	}

	switch args[0] {
	case "list":
		return handleSessionsList(args[1:])
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("usage: kodechat sessions show <id>")
		}
		return handleSessionsShow(args[1])
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: kodechat sessions delete <id>")
		}
		return handleSessionsDelete(args[1])
	case "sync":
		return handleSessionsSync()
	default:
		return fmt.Errorf("unknown sessions subcommand: %s", args[0])
	}
}

func printSessionsUsage() {
	fmt.Println("usage: kodechat sessions [-h] {list,show,delete,sync} ...")
	fmt.Println("")
	fmt.Println("positional arguments:")
	fmt.Println("  {list,show,delete,sync}")
	fmt.Println("                        Session management commands")
	fmt.Println("    list                List sessions (--remote for backend history)")
	fmt.Println("    show                Print one session transcript")
	fmt.Println("    delete              Delete a local session")
	fmt.Println("    sync                Pull backend history into the local archive")
	fmt.Println("")
	fmt.Println("options:")
	fmt.Println("  -h, --help            show this help message and exit")
}

func handleSessionsList(args []string) error {
	remote := false
	for _, arg := range args {
		switch arg {
		case "--remote", "-r":
			remote = true
		default:
			return fmt.Errorf("unknown list option: %s", arg)
		}
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	if !remote {
		fmt.Print(ui.RenderSessionList(ui.LocalRows(a.controller.State().Sessions())))
		return nil
	}

	userID := a.auth.UserID()
	if userID == "" {
		return fmt.Errorf("remote history requires login: run kodechat login")
	}

	archive, err := a.openArchive()
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.API.RequestTimeout)
	defer cancel()

	syncer := store.NewSyncer(a.client, archive, a.log)
	sessions, offline, err := syncer.Sessions(ctx, userID)
	if err != nil {
		return err
	}
	if offline {
		fmt.Println(ui.DimStyle.Render("Backend unreachable, showing local archive."))
	}
	fmt.Print(ui.RenderSessionList(ui.ArchiveRows(sessions)))
	return nil
}

func handleSessionsShow(sessionID string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if sess, ok := a.controller.State().Session(sessionID); ok {
		fmt.Println(ui.TitleStyle.Render(sess.Title))
		fmt.Println()
		fmt.Print(ui.RenderTranscript(sess.Messages, 100))
		return nil
	}

	// Not stored locally; try the archive.
	archive, err := a.openArchive()
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	messages, err := archive.SessionMessages(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	fmt.Print(ui.RenderTranscript(messages, 100))
	return nil
}

func handleSessionsDelete(sessionID string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if _, ok := a.controller.State().Session(sessionID); ok {
		a.controller.DeleteSession(sessionID)
		fmt.Printf("Deleted session %s\n", sessionID)
		return nil
	}

	// Not stored locally; try the backend copy.
	if a.auth.UserID() == "" {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.API.RequestTimeout)
	defer cancel()
	if err := a.client.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	fmt.Printf("Deleted remote session %s\n", sessionID)
	return nil
}

func handleSessionsSync() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	userID := a.auth.UserID()
	if userID == "" {
		return fmt.Errorf("sync requires login: run kodechat login")
	}

	archive, err := a.openArchive()
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	syncer := store.NewSyncer(a.client, archive, a.log)
	count, err := syncer.Sync(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Printf("Synced %d session(s) into the local archive.\n", count)
	return nil
}
