package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/tutordesk/apps/api/echo"
	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/educator"
)

const devTokenTTL = 24 * time.Hour

// token prints a dashboard token, for local use when the auth service is not around.
func (cli *commandLine) token(id, name, email string, isAdmin bool) error {
	edu := educator.Educator{
		ID:    id,
		Name:  core.CleanString(name),
		Email: core.CleanString(email, true /* lower */),
		Roles: []string{educator.RoleEducator},
	}
	if isAdmin {
		edu.Roles = educator.AllRoles
	}
	token, err := echoapi.GenerateToken(echoapi.GetEducatorClaims(edu, cli.conf, devTokenTTL), cli.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
