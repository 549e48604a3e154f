package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	// Handle subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version":
			fmt.Printf("zign %s\n", Version)
			fmt.Println("Remote code signing via SignPath")
			return
		case "sign":
			// Handle zign sign subcommand
			if err := runSign(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "token":
			// Handle zign token subcommand
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "Error: token subcommand requires an action")
				fmt.Fprintln(os.Stderr, "Usage: zign token set [token]")
				fmt.Fprintln(os.Stderr, "       zign token show")
				os.Exit(1)
			}
			switch os.Args[2] {
			case "set":
				if err := runTokenSet(os.Args[3:]); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
			case "show":
				if err := runTokenShow(os.Args[3:]); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
			default:
				fmt.Fprintf(os.Stderr, "Error: unknown token action: %s\n", os.Args[2])
				fmt.Fprintln(os.Stderr, "Usage: zign token set [token]")
				fmt.Fprintln(os.Stderr, "       zign token show")
				os.Exit(1)
			}
			return
		}
	}

	// Default: show help
	fmt.Println("╔══════════════════════════════════════════════════════════╗")
	fmt.Println("║  zign - Remote code signing via SignPath                 ║")
	fmt.Println("╚══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  zign --version            Show version information")
	fmt.Println("  zign sign [options] [files...]  Sign build artifacts")
	fmt.Println("  zign token set [token]    Store an API token")
	fmt.Println("  zign token show           Show where the API token is stored")
	fmt.Println()
	fmt.Println("Run 'zign sign --help' for signing options.")
}

// getZignDir returns the zign config directory (token storage).
func getZignDir() (string, error) {
	// Check environment variable
	if zignDir := os.Getenv("ZIGN_DIR"); zignDir != "" {
		return zignDir, nil
	}

	// Default to ~/.config/zign
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "zign"), nil
}
