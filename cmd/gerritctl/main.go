// Command gerritctl queries a Gerrit server from the terminal using the same
// client and label summarizer as the gerritwatch service.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
