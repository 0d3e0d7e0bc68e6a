package main

import (
	"fmt"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version":
			fmt.Printf("dotstrap %s\n", Version)
			return
		case "install":
			code, err := runInstall(os.Args[2:])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(code)
		case "init":
			if err := runInit(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "doctor":
			code, err := runDoctor(os.Args[2:])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(code)
		case "activate":
			if err := runActivate(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "fetch":
			if err := runFetch(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "inventory":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "Error: inventory subcommand requires an action")
				fmt.Fprintln(os.Stderr, "Usage: dotstrap inventory add [options] <host>")
				fmt.Fprintln(os.Stderr, "       dotstrap inventory list [options]")
				fmt.Fprintln(os.Stderr, "       dotstrap inventory remove [options] <host>")
				os.Exit(1)
			}
			var err error
			switch os.Args[2] {
			case "add":
				err = runInventoryAdd(os.Args[3:])
			case "list":
				err = runInventoryList(os.Args[3:])
			case "remove":
				err = runInventoryRemove(os.Args[3:])
			default:
				err = fmt.Errorf("unknown inventory action: %s", os.Args[2])
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	printUsage()
}

func printUsage() {
	fmt.Println("dotstrap - bootstrap a machine from a dotfiles playbook")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dotstrap --version               Show version information")
	fmt.Println("  dotstrap install [options]       Run the bootstrap flow")
	fmt.Println("  dotstrap init [options]          Scaffold the configuration file")
	fmt.Println("  dotstrap doctor                  Check the environment")
	fmt.Println("  dotstrap inventory add|list|remove")
	fmt.Println("                                   Manage inventory host declarations")
	fmt.Println("  dotstrap activate <shell>        Generate shell setup script (bash, zsh, fish)")
	fmt.Println("  dotstrap fetch <tool> [options]  Download and verify a tool binary")
}
