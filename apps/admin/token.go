package main

import (
	"fmt"

	echoapi "github.com/nxtwiseedu/nxtwise-lms/apps/api/echo"
	"github.com/nxtwiseedu/nxtwise-lms/core"
)

// token prints a bearer token for userID, signed with the configured secret key.
func (cli *commandLine) token(userID, email string) error {
	userID = core.CleanString(userID)
	tok, err := echoapi.GenerateToken(cli.conf, echoapi.NewClaims(cli.conf, userID, core.CleanString(email, true /* lower */)))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, tok)
	return nil
}
