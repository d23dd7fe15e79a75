package main

import (
	"fmt"
	"os"

	"github.com/shellkode/kodechat/cmd/kodechat"
)

func main() {
	if err := kodechat.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
