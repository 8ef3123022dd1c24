// The main package for the insight-api executable.
package main

import "github.com/brandlens/insight-api/cmd"

func main() {
	cmd.Execute()
}
