package main

import (
	"context"
	"encoding/json"
)

func (cli *commandLine) printProgress(userID, courseID string) error {
	rec, err := cli.backend.Progress.Get(context.Background(), userID, courseID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
