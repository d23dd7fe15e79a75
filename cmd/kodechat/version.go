package kodechat

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Version information
const (
	Version = "1.0.0"
	Name    = "KodeChat"
	GitHub  = "https://github.com/shellkode/kodechat"
)

var asciiLogo = `
   __ __          __     ________          __
  / //_/___  ____/ /__  / ____/ /_  ____ _/ /_
 / ,< / __ \/ __  / _ \/ /   / __ \/ __ '/ __/
/ /| / /_/ / /_/ /  __/ /___/ / / / /_/ / /_
/_/ |_\____/\__,_/\___/\____/_/ /_/\__,_/\__/
`

func printVersion() {
	logoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("63")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	linkStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Underline(true)

	fmt.Println(logoStyle.Render(asciiLogo))
	fmt.Println()

	fmt.Println(labelStyle.Render(Name))
	fmt.Printf("%s %s\n", labelStyle.Render("Version:"), valueStyle.Render(Version))
	fmt.Printf("%s %s\n", labelStyle.Render("GitHub:"), linkStyle.Render(GitHub))
	fmt.Println()
}
