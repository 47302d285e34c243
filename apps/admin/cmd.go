package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp             = errors.New("help provided")
	errPasswordMismatch = errors.New("passwords do not match")
)

// profileStore persists what the CLI changed.
type profileStore interface {
	Flush() error
}

type commandLine struct {
	usrSvc     *user.Service
	store      profileStore
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME [-roles ROLE,...] [-first NAME] [-last NAME] [-email EMAIL] - create a profile")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME - reset a profile's password")
	fmt.Fprintln(cli.out, "  listusers - list every profile")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The new username. The password will be prompted next.")
	addUserRoles := addUserCmd.String("roles", "", "Comma-separated roles.")
	addUserFirst := addUserCmd.String("first", "", "First name.")
	addUserLast := addUserCmd.String("last", "", "Last name.")
	addUserEmail := addUserCmd.String("email", "", "Email address.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				addUserCmd.Usage()
			}
			return err
		}
		return cli.addUser(user.NewProfile{
			Username:        *addUserUname,
			FirstName:       *addUserFirst,
			LastName:        *addUserLast,
			Email:           *addUserEmail,
			Roles:           splitRoles(*addUserRoles),
			Password:        pwd,
			PasswordConfirm: pwd,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				resetPasswordCmd.Usage()
			}
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "listusers":
		return cli.listUsers()

	default:
		cli.printUsage()
		return errHelp
	}
}

// promptPassword reads the password twice from the terminal.
func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}

	fmt.Fprint(cli.out, "Confirm password:")
	confirm, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if string(confirm) != string(pwd) {
		return "", errPasswordMismatch
	}
	return string(pwd), nil
}

func splitRoles(raw string) []string {
	var roles []string
	for _, role := range strings.Split(raw, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

// describe renders err for the terminal; validation errors are listed per field.
func (cli *commandLine) describe(err error) string {
	switch origErr := pkgerrors.Cause(err).(type) {
	case validator.ValidationErrors:
		var b strings.Builder
		for fld, msg := range core.TranslateErrors(origErr, cli.translator) {
			fmt.Fprintf(&b, "\n  %s: %s", fld, msg)
		}
		return "invalid input:" + b.String()
	default:
		return err.Error()
	}
}
