package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
)

func (cli *commandLine) listUsers() error {
	profiles, err := cli.usrSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tNAME\tEMAIL\tROLES")
	for _, p := range profiles {
		name := strings.TrimSpace(p.FirstName + " " + p.LastName)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Username, name, p.Email, strings.Join(p.Roles, ","))
	}
	return w.Flush()
}
