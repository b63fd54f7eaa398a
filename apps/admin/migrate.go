package main

import "github.com/akadahq/akada/storage/database"

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate(command string, args ...string) error {
	return migrateFunc(cli.db, command, args...)
}
