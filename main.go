package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/awnumar/memguard"

	"github.com/illarion/credvault/cmd"
	"github.com/illarion/credvault/internal/config"
	"github.com/illarion/credvault/internal/logging"
	"github.com/illarion/credvault/internal/vault"
)

func main() {
	// Wipe locked buffers on Ctrl-C before exiting.
	memguard.CatchInterrupt()
	defer memguard.Purge()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(ctx, os.Args[2:])
	case "add":
		err = runAdd(ctx, os.Args[2:])
	case "ls", "list":
		err = runLs(ctx, os.Args[2:])
	case "show":
		err = runShow(ctx, os.Args[2:])
	case "edit":
		err = runEdit(ctx, os.Args[2:])
	case "rm":
		err = runRm(ctx, os.Args[2:])
	case "reset":
		err = runReset(ctx, os.Args[2:])
	case "status":
		err = runStatus(ctx, os.Args[2:])
	case "compact":
		err = runCompact(ctx, os.Args[2:])
	case "keyring":
		err = runKeyring(ctx, os.Args[2:])
	case "completion":
		err = runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		stop()
		memguard.Purge()
		cmd.HandleError(err)
	}
}

// command bundles a subcommand's flag set with the shared configuration
type command struct {
	fs  *flag.FlagSet
	cfg *config.Config
}

func newCommand(name string) *command {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() { printCommandHelp(name) }
	cfg.RegisterFlags(fs)
	return &command{fs: fs, cfg: cfg}
}

// parse accepts flags before, between and after positional arguments.
// Everything after a "--" terminator is positional.
func (c *command) parse(args []string) []string {
	rest, _ := parseInterspersed(c.fs, args)
	return rest
}

func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func (c *command) env() *cmd.Env {
	if err := c.cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(c.cfg.LogLevel, c.cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	return cmd.NewEnv(c.cfg, logger)
}

func runInit(ctx context.Context, args []string) error {
	c := newCommand("init")
	c.parse(args)
	return cmd.Init(ctx, c.env())
}

func runAdd(ctx context.Context, args []string) error {
	c := newCommand("add")
	service := c.fs.String("service", "", "service name (required)")
	user := c.fs.String("user", "", "username for passwords")
	account := c.fs.String("account", "", "account name for API keys")
	notes := c.fs.String("notes", "", "free-form notes")
	tags := c.fs.String("tags", "", "comma-separated tags")
	inactive := c.fs.Bool("inactive", false, "mark an API key as inactive")
	secretStdin := c.fs.Bool("secret-stdin", false, "read the secret from standard input")
	rest := c.parse(args)

	if len(rest) != 1 {
		return errors.New("usage: credvault add <password|apikey> -service NAME [flags]")
	}
	kind, err := vault.ParseKind(rest[0])
	if err != nil {
		return err
	}

	opts := cmd.AddOptions{
		Kind:      kind,
		Service:   *service,
		Principal: *user,
		Notes:     *notes,
		Tags:      cmd.ParseTags(*tags),
		Inactive:  *inactive,
	}
	if kind == vault.KindAPIKey && *account != "" {
		opts.Principal = *account
	}
	if *secretStdin {
		secret, err := readSecret(os.Stdin)
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(secret)
		opts.Secret = secret
	}

	return cmd.Add(ctx, c.env(), opts)
}

// readSecret reads the first line of r without the line ending
func readSecret(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

func runLs(ctx context.Context, args []string) error {
	c := newCommand("ls")
	tag := c.fs.String("tag", "", "only credentials with this tag")
	kind := c.fs.String("kind", "", "only this kind (password, apikey)")
	service := c.fs.String("service", "", "only services containing this text")
	c.parse(args)

	filter := cmd.ListFilter{Tag: *tag, Service: *service}
	if *kind != "" {
		k, err := vault.ParseKind(*kind)
		if err != nil {
			return err
		}
		filter.Kind = k
	}
	return cmd.List(ctx, c.env(), filter)
}

func runShow(ctx context.Context, args []string) error {
	c := newCommand("show")
	reveal := c.fs.Bool("reveal", false, "print the secret in clear text")
	rest := c.parse(args)

	if len(rest) != 1 {
		return errors.New("usage: credvault show <id> [-reveal]")
	}
	return cmd.Show(ctx, c.env(), rest[0], *reveal)
}

// fieldFlags collects repeated -field key=value pairs
type fieldFlags map[string]string

func (f fieldFlags) String() string { return "" }

func (f fieldFlags) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	f[strings.TrimSpace(k)] = v
	return nil
}

func runEdit(ctx context.Context, args []string) error {
	c := newCommand("edit")
	service := c.fs.String("service", "", "new service name")
	principal := c.fs.String("principal", "", "new username or account")
	secret := c.fs.Bool("secret", false, "prompt for a new secret")
	notes := c.fs.String("notes", "", "new notes (empty clears)")
	tags := c.fs.String("tags", "", "new comma-separated tags (empty clears)")
	active := c.fs.String("active", "", "API key state: true or false")
	fields := fieldFlags{}
	c.fs.Var(fields, "field", "set custom field key=value (empty value removes; repeatable)")
	clearFields := c.fs.Bool("clear-fields", false, "remove all custom fields first")
	rest := c.parse(args)

	if len(rest) != 1 {
		return errors.New("usage: credvault edit <id> [flags]")
	}

	opts := cmd.EditOptions{
		PromptSecret: *secret,
		SetFields:    fields,
		ClearFields:  *clearFields,
	}

	var err error
	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "service":
			opts.Patch.Service = vault.Set(*service)
		case "principal":
			opts.Patch.Principal = vault.Set(*principal)
		case "notes":
			opts.Patch.Notes = vault.Set(*notes)
		case "tags":
			opts.Patch.Tags = vault.Set(cmd.ParseTags(*tags))
		case "active":
			v, perr := strconv.ParseBool(*active)
			if perr != nil {
				err = fmt.Errorf("invalid -active value %q", *active)
				return
			}
			opts.Patch.IsActive = vault.Set(v)
		}
	})
	if err != nil {
		return err
	}

	return cmd.Edit(ctx, c.env(), rest[0], opts)
}

func runRm(ctx context.Context, args []string) error {
	c := newCommand("rm")
	rest := c.parse(args)
	return cmd.Remove(ctx, c.env(), rest)
}

func runReset(ctx context.Context, args []string) error {
	c := newCommand("reset")
	force := c.fs.Bool("force", false, "erase without confirmation")
	c.parse(args)
	return cmd.Reset(ctx, c.env(), *force)
}

func runStatus(ctx context.Context, args []string) error {
	c := newCommand("status")
	c.parse(args)
	return cmd.Status(ctx, c.env())
}

func runCompact(ctx context.Context, args []string) error {
	c := newCommand("compact")
	c.parse(args)
	return cmd.Compact(ctx, c.env())
}

func runKeyring(ctx context.Context, args []string) error {
	c := newCommand("keyring")
	rest := c.parse(args)

	if len(rest) != 1 {
		return errors.New("usage: credvault keyring <save|delete|status>")
	}
	env := c.env()
	switch rest[0] {
	case "save":
		return cmd.KeyringSave(ctx, env)
	case "delete":
		return cmd.KeyringDelete(ctx, env)
	case "status":
		return cmd.KeyringStatus(ctx, env)
	default:
		return fmt.Errorf("unknown keyring command: %s", rest[0])
	}
}

func runCompletion(_ context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: credvault completion <bash|zsh|fish>")
	}
	return cmd.Completion(os.Stdout, args[0])
}
