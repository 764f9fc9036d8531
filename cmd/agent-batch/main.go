// Package main provides the entry point for the agent-batch CLI.
package main

import "yqhp/agent-batch/cmd"

func main() {
	cmd.Execute()
}
