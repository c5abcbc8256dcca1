package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/tutordesk/core/wizard"
)

// titleKeys are tried in order to label a listed entity.
var titleKeys = []string{"title", "name", "question", "subject"}

func (cli *commandLine) list(ctx context.Context, resource, educatorID string, page, limit int) error {
	list, err := cli.backend.List(ctx, resource, educatorID, page, limit)
	if err != nil {
		return errors.Wrapf(err, "listing %s", resource)
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE")
	for _, item := range list.Items {
		fmt.Fprintf(w, "%s\t%s\n", item.ID(), entityTitle(item))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d of %d (page %d)\n", len(list.Items), list.Total, list.Page)
	return nil
}

func entityTitle(e wizard.Entity) string {
	for _, key := range titleKeys {
		if s, ok := e[key].(string); ok && s != "" {
			return s
		}
	}
	return "-"
}
