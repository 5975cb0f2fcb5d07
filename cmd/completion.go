package cmd

import (
	"fmt"
	"io"
)

// Completion writes the shell completion script for shell
func Completion(w io.Writer, shell string) error {
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletion)
	case "zsh":
		fmt.Fprint(w, zshCompletion)
	case "fish":
		fmt.Fprint(w, fishCompletion)
	default:
		return fmt.Errorf("unknown shell: %s (supported: bash, zsh, fish)", shell)
	}
	return nil
}

// Credential ids are listed only when the vault opens without a prompt
// (CREDVAULT_PASSWORD or keyring); stdin is closed so nothing blocks.
const bashCompletion = `_credvault_ids() {
    credvault ls </dev/null 2>/dev/null | awk 'NR>1 && $1 != "(no" {print $1}'
}

_credvault() {
    local cur prev words cword
    _init_completion || return

    local commands="init add ls show edit rm reset status compact keyring completion help"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        add)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "password apikey" -- "$cur"))
            else
                COMPREPLY=($(compgen -W "-service -user -account -notes -tags -inactive -secret-stdin" -- "$cur"))
            fi
            ;;
        ls)
            COMPREPLY=($(compgen -W "-tag -kind -service" -- "$cur"))
            ;;
        show)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-reveal" -- "$cur"))
            else
                COMPREPLY=($(compgen -W "$(_credvault_ids)" -- "$cur"))
            fi
            ;;
        edit)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-service -principal -secret -notes -tags -active -field -clear-fields" -- "$cur"))
            else
                COMPREPLY=($(compgen -W "$(_credvault_ids)" -- "$cur"))
            fi
            ;;
        rm)
            COMPREPLY=($(compgen -W "$(_credvault_ids)" -- "$cur"))
            ;;
        reset)
            COMPREPLY=($(compgen -W "-force" -- "$cur"))
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _credvault credvault
`

const zshCompletion = `#compdef credvault

_credvault() {
    local -a commands
    commands=(
        'init:Create a new vault'
        'add:Add a password or API key'
        'ls:List credentials'
        'show:Show one credential'
        'edit:Change fields of a credential'
        'rm:Remove credentials'
        'reset:Erase the vault'
        'status:Show vault status'
        'compact:Compact vault to reclaim disk space'
        'keyring:Manage password in OS keyring'
        'completion:Generate shell completions'
        'help:Show help for a command'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'credvault commands' commands
            ;;
        args)
            case "${words[2]}" in
                add)
                    _values 'kind' password apikey
                    ;;
                show|edit|rm)
                    _credvault_ids
                    ;;
                reset)
                    _arguments '-force[Erase without confirmation]'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'credvault commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_credvault_ids() {
    local -a ids
    ids=(${(f)"$(credvault ls </dev/null 2>/dev/null | awk 'NR>1 && $1 != "(no" {print $1}')"})
    _describe -t ids 'credential ids' ids
}

_credvault "$@"
`

const fishCompletion = `# credvault fish completions

set -l commands init add ls show edit rm reset status compact keyring completion help

complete -c credvault -f

complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create a new vault'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a add -d 'Add a password or API key'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List credentials'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a show -d 'Show one credential'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a edit -d 'Change fields of a credential'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove credentials'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a reset -d 'Erase the vault'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show vault status'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact vault'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'

complete -c credvault -n "__fish_seen_subcommand_from add" -a "password apikey"
complete -c credvault -n "__fish_seen_subcommand_from show edit rm" -a "(credvault ls </dev/null 2>/dev/null | awk 'NR>1 && \$1 != \"(no\" {print \$1}')"
complete -c credvault -n "__fish_seen_subcommand_from reset" -l force -d 'Erase without confirmation'
complete -c credvault -n "__fish_seen_subcommand_from keyring" -a "save delete status"
complete -c credvault -n "__fish_seen_subcommand_from help" -a "$commands"
complete -c credvault -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
