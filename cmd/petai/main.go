// Command petai turns a pet photo into a stylized image from the terminal.
//
// Usage:
//
//	petai styles
//	petai gallery
//	petai generate --image dog.jpg --style "Superhero" --out ./results
package main

import (
	"fmt"
	"os"

	"petai/cmd/petai/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
