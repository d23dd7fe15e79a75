package kodechat

import (
	"fmt"
	"os"
)

// Execute is the main entry point for the CLI
func Execute() error {
	if len(os.Args) < 2 {
		return handleChatCommand(nil)
	}
	if os.Args[1] == "-h" || os.Args[1] == "--help" {
		printUsage()
		return nil
	}

	command := os.Args[1]
	switch command {
	case "chat":
		return handleChatCommand(os.Args[2:])
	case "sessions":
		return handleSessionsCommand(os.Args[2:])
	case "login":
		return handleLoginCommand()
	case "logout":
		return handleLogoutCommand()
	case "config":
		return handleConfigCommand(os.Args[2:])
	case "version":
		printVersion()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage() {
	fmt.Println("usage: kodechat [-h] {chat,sessions,login,logout,config,version} ...")
	fmt.Println("")
	fmt.Println("positional arguments:")
	fmt.Println("  {chat,sessions,login,logout,config,version}")
	fmt.Println("                        KodeChat CLI commands")
	fmt.Println("    chat                Start an interactive chat (default)")
	fmt.Println("    sessions            Manage chat sessions")
	fmt.Println("    login               Log in with a Google ID token")
	fmt.Println("    logout              Remove the stored credential")
	fmt.Println("    config              Manage configuration")
	fmt.Println("    version             Show version information")
	fmt.Println("")
	fmt.Println("options:")
	fmt.Println("  -h, --help            show this help message and exit")
}
