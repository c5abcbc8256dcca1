package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/wizard"
	"github.com/trezcool/tutordesk/services/backend"
)

const tokenEnv = "TUTORDESK_TOKEN"

var (
	readPasswordFunc = term.ReadPassword // mockable
	isTerminalFunc   = term.IsTerminal   // mockable

	errHelp    = errors.New("help provided")
	errNoToken = errors.New("a backend token is required")
)

// cliBackend is what the CLI needs from the tutoring backend.
type cliBackend interface {
	wizard.Backend
	Get(ctx context.Context, resource, id string) (wizard.Entity, error)
	List(ctx context.Context, resource, owner string, page, limit int) (backend.List, error)
}

type commandLine struct {
	conf    *core.Config
	backend cliBackend
	logger  core.Logger
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  list -resource RESOURCE -educator ID [-page N] [-limit N] [-token TOKEN] - list an educator's entities")
	fmt.Fprintln(cli.out, "  create -file FIXTURE.yaml [-token TOKEN] - run a wizard from a fixture and submit it")
	fmt.Fprintln(cli.out, "  token -id ID [-name NAME] [-email EMAIL] [-admin] - print a dashboard token signed with the secret key")
	fmt.Fprintf(cli.out, "The backend token defaults to $%s and is prompted for when missing.\n", tokenEnv)
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	listCmd := flag.NewFlagSet("list", flag.ContinueOnError)
	listResource := listCmd.String("resource", "", "The collection, e.g. courses, webinars, live-tests.")
	listEducator := listCmd.String("educator", "", "The educator id.")
	listPage := listCmd.Int("page", 1, "The page.")
	listLimit := listCmd.Int("limit", 20, "The page size.")
	listToken := listCmd.String("token", "", "The backend token.")

	createCmd := flag.NewFlagSet("create", flag.ContinueOnError)
	createFile := createCmd.String("file", "", "The YAML fixture describing the wizard to run.")
	createToken := createCmd.String("token", "", "The backend token.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenID := tokenCmd.String("id", "", "The educator id.")
	tokenName := tokenCmd.String("name", "", "The educator name.")
	tokenEmail := tokenCmd.String("email", "", "The educator email.")
	tokenAdmin := tokenCmd.Bool("admin", false, "Give admin roles.")

	for _, fs := range []*flag.FlagSet{listCmd, createCmd, tokenCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "list":
		if err := listCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *listResource == "" || *listEducator == "" {
			listCmd.Usage()
			return errHelp
		}
		ctx, err := cli.authContext(*listToken)
		if err != nil {
			return err
		}
		return cli.list(ctx, *listResource, *listEducator, *listPage, *listLimit)
	case "create":
		if err := createCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *createFile == "" {
			createCmd.Usage()
			return errHelp
		}
		fx, err := loadFixture(*createFile)
		if err != nil {
			return err
		}
		ctx, err := cli.authContext(*createToken)
		if err != nil {
			return err
		}
		return cli.create(ctx, fx)
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *tokenID == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenID, *tokenName, *tokenEmail, *tokenAdmin)
	default:
		cli.printUsage()
		return errHelp
	}
}

// authContext picks the backend token: flag, then environment, then config, then prompt.
func (cli *commandLine) authContext(token string) (context.Context, error) {
	ctx := context.Background()
	if token == "" {
		token = os.Getenv(tokenEnv)
	}
	if token == "" && cli.conf.Backend.Token != "" {
		return ctx, nil // the client sends it
	}
	if token == "" {
		if !isTerminalFunc(int(syscall.Stdin)) {
			return nil, errNoToken
		}
		fmt.Fprint(cli.out, "Enter backend token:")
		b, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return nil, err
		}
		token = strings.TrimSpace(string(b))
	}
	if token == "" {
		return nil, errNoToken
	}
	return backend.WithToken(ctx, token), nil
}
