package main

import (
	"fmt"
	"os"
)

func printUsage() {
	fmt.Println("credvault - Encrypted local store for passwords and API keys")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  credvault <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create a new vault protected by a master password")
	fmt.Println("  add         Add a password or API key")
	fmt.Println("  ls          List credentials (secrets hidden)")
	fmt.Println("  show        Show one credential")
	fmt.Println("  edit        Change fields of a credential")
	fmt.Println("  rm          Remove credentials")
	fmt.Println("  reset       Erase the vault and all credentials")
	fmt.Println("  status      Show vault status (no password needed)")
	fmt.Println("  compact     Compact vault to reclaim disk space")
	fmt.Println("  keyring     Manage the master password in the OS keyring")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Global flags (every command):")
	fmt.Println("  -vault PATH       Vault file (default $XDG_DATA_HOME/credvault/vault.db)")
	fmt.Println("  -log-level LEVEL  debug, info, warn or error (default warn)")
	fmt.Println("  -no-keyring       Do not read or write the OS keyring")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  CREDVAULT_PASSWORD   Master password (skips the prompt)")
	fmt.Println("  CREDVAULT_VAULT      Vault file path")
	fmt.Println("  CREDVAULT_CONFIG     JSON config file")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  credvault init")
	fmt.Println("  credvault add password -service github -user alice -tags dev")
	fmt.Println("  credvault ls -tag dev")
	fmt.Println("  credvault show 3f2a -reveal")
	fmt.Println()
	fmt.Println("Use 'credvault help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("credvault init")
		fmt.Println()
		fmt.Println("Creates an empty vault and asks for its master password twice.")
		fmt.Println("The password is not stored anywhere unless you save it to the keyring.")
	case "add":
		fmt.Println("credvault add <password|apikey> -service NAME [flags]")
		fmt.Println()
		fmt.Println("Adds a credential. The secret is read without echo unless -secret-stdin is given.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -service NAME    Service name (required)")
		fmt.Println("  -user NAME       Username (passwords)")
		fmt.Println("  -account NAME    Account name (API keys)")
		fmt.Println("  -notes TEXT      Free-form notes")
		fmt.Println("  -tags a,b        Comma-separated tags")
		fmt.Println("  -inactive        Store an API key as inactive")
		fmt.Println("  -secret-stdin    Read the secret from the first line of stdin")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  credvault add password -service github -user alice -tags dev")
		fmt.Println("  echo \"$KEY\" | credvault add apikey -service stripe -account billing -secret-stdin")
	case "ls", "list":
		fmt.Println("credvault ls [-tag TAG] [-kind KIND] [-service TEXT]")
		fmt.Println()
		fmt.Println("Lists credentials ordered by service. Secrets are never printed.")
		fmt.Println("The ID column shows a short prefix accepted by show, edit and rm.")
	case "show":
		fmt.Println("credvault show <id> [-reveal]")
		fmt.Println()
		fmt.Println("Shows one credential. The secret is masked unless -reveal is given.")
	case "edit":
		fmt.Println("credvault edit <id> [flags]")
		fmt.Println()
		fmt.Println("Changes only the fields named by flags, then prints what changed.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -service NAME        New service name")
		fmt.Println("  -principal NAME      New username or account")
		fmt.Println("  -secret              Prompt for a new secret")
		fmt.Println("  -notes TEXT          New notes (empty clears)")
		fmt.Println("  -tags a,b            New tags (empty clears)")
		fmt.Println("  -active true|false   API key state")
		fmt.Println("  -field key=value     Set a custom field (empty value removes it)")
		fmt.Println("  -clear-fields        Remove all custom fields first")
	case "rm":
		fmt.Println("credvault rm <id> [id...]")
		fmt.Println()
		fmt.Println("Removes credentials and compacts the vault file.")
	case "reset":
		fmt.Println("credvault reset [-force]")
		fmt.Println()
		fmt.Println("Erases the vault and every credential in it, and forgets the keyring entry.")
		fmt.Println("No password is needed, so this also recovers from a forgotten password.")
		fmt.Println("Asks you to type 'reset' unless -force is given.")
	case "status":
		fmt.Println("credvault status")
		fmt.Println()
		fmt.Println("Shows the vault path, id, timestamps, KDF parameters and keyring state.")
		fmt.Println("Does not require a password.")
	case "compact":
		fmt.Println("credvault compact")
		fmt.Println()
		fmt.Println("Rewrites the vault file to reclaim unused space.")
		fmt.Println("Does not require a password.")
	case "keyring":
		fmt.Println("credvault keyring <save|delete|status>")
		fmt.Println()
		fmt.Println("  save     Verify the master password and store it in the OS keyring")
		fmt.Println("  delete   Remove the stored password")
		fmt.Println("  status   Show whether a password is stored")
	case "completion":
		fmt.Println("credvault completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(credvault completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(credvault completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  credvault completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
