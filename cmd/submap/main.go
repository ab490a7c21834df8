// The submap binary is the command-line interface for mapping free-text
// substance mentions to the reference vocabulary.
package main

import "github.com/medcodelab/substance-mapper/internal/interfaces/cli"

func main() {
	cli.Execute()
}
