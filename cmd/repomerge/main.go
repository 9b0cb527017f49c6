package main

import (
	"fmt"
	"os"
)

// version is set by the linker at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "serve":
		return runServe(args[1:])
	case "merge":
		return runMerge(args[1:])
	case "status":
		return runStatus(args[1:])
	case "version":
		fmt.Println(version)
		return nil
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: repomerge <command> [flags]

commands:
  serve    run the merge job API (and optionally the MCP tools)
  merge    merge two repositories in one shot and write the result
  status   query a running server for job state
  version  print the version

run 'repomerge <command> -h' for command flags`)
}
