package kodechat

import (
	"fmt"

	"github.com/shellkode/kodechat/pkg/chat"
	"github.com/shellkode/kodechat/pkg/ui"
)

func handleChatCommand(args []string) error {
	mode := chat.Mode("")
	sessionID := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--help":
			printChatUsage()
			return nil
		case "--mode", "-m":
			if i+1 >= len(args) {
				return fmt.Errorf("--mode requires a value")
			}
			i++
			parsed, err := chat.ParseMode(args[i])
			if err != nil {
				return err
			}
			mode = parsed
		case "--session", "-s":
			if i+1 >= len(args) {
				return fmt.Errorf("--session requires a value")
			}
			i++
			sessionID = args[i]
		default:
			return fmt.Errorf("unknown chat option: %s", args[i])
		}
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	if mode == "" {
		mode = chat.Mode(a.cfg.Chat.DefaultMode)
		if !mode.Valid() {
			mode = chat.ModeResearch
		}
	}

	if sessionID != "" {
		if _, ok := a.controller.State().Session(sessionID); !ok {
			return fmt.Errorf("session not found: %s", sessionID)
		}
		a.controller.Select(sessionID)
	}

	return ui.NewChatProgram(a.controller, mode).Run()
}

func printChatUsage() {
	fmt.Println("usage: kodechat chat [-h] [--mode MODE] [--session ID]")
	fmt.Println("")
	fmt.Println("options:")
	fmt.Println("  -h, --help            show this help message and exit")
	fmt.Println("  -m, --mode MODE       chat mode: standard, research, troubleshoot, code")
	fmt.Println("  -s, --session ID      resume a stored session")
}
