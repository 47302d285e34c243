package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core/user"
)

func (cli *commandLine) addUser(np user.NewProfile) error {
	p, err := cli.usrSvc.Create(context.Background(), np)
	if err != nil {
		return err
	}
	if err = cli.store.Flush(); err != nil {
		return errors.Wrap(err, "flushing profiles")
	}
	fmt.Fprintf(cli.out, "profile created: %s\n", p.Username)
	return nil
}
