package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/ZebulonRouseFrantzich/zign/internal/credentials"
)

// runTokenSet handles the `zign token set` subcommand
func runTokenSet(args []string) error {
	showHelp := false
	var token string

	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			showHelp = true
		default:
			if len(arg) > 0 && arg[0] != '-' {
				if token != "" {
					return fmt.Errorf("expected a single token argument")
				}
				token = arg
			} else {
				return fmt.Errorf("unknown option: %s", arg)
			}
		}
	}

	if showHelp {
		fmt.Println("Usage: zign token set [token]")
		fmt.Println()
		fmt.Println("Store the SignPath API token in the zign config directory.")
		fmt.Println("Without an argument, the token is read from stdin so it never")
		fmt.Println("appears in shell history.")
		return nil
	}

	if token == "" {
		fmt.Fprint(os.Stderr, "Token: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read token from stdin: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}

	zignDir, err := getZignDir()
	if err != nil {
		return err
	}
	if err := credentials.WriteTokenFile(zignDir, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	color.Green("Token stored in %s", credentials.TokenFilePath(zignDir))
	return nil
}

// runTokenShow handles the `zign token show` subcommand
func runTokenShow(args []string) error {
	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			fmt.Println("Usage: zign token show")
			fmt.Println()
			fmt.Println("Show where the API token is stored and whether one exists.")
			return nil
		default:
			return fmt.Errorf("unknown option: %s", arg)
		}
	}

	zignDir, err := getZignDir()
	if err != nil {
		return err
	}

	path := credentials.TokenFilePath(zignDir)
	fmt.Printf("Token file: %s\n", path)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No token stored.")
			if os.Getenv(credentials.EnvAPIToken) != "" {
				fmt.Printf("%s is set and will be used.\n", credentials.EnvAPIToken)
			}
			return nil
		}
		return fmt.Errorf("check token file: %w", err)
	}

	fmt.Println("A token is stored.")
	return nil
}
