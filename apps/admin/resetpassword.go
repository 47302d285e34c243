package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	err := cli.usrSvc.ResetPassword(context.Background(), user.ResetPassword{
		Username:        uname,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	if err != nil {
		return err
	}
	if err = cli.store.Flush(); err != nil {
		return errors.Wrap(err, "flushing profiles")
	}
	fmt.Fprintf(cli.out, "password updated: %s\n", uname)
	return nil
}
