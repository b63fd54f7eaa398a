package main

import (
	"log"
	"os"

	"github.com/akadahq/akada/core"
	"github.com/akadahq/akada/core/academic"
	logsvc "github.com/akadahq/akada/services/logger"
	"github.com/akadahq/akada/storage/database"
	sqlxrepos "github.com/akadahq/akada/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags)

	conf, err := core.NewConfig()
	if err != nil {
		std.Fatal(err)
	}

	db, err := database.Open(conf)
	if err != nil {
		std.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	cli := &commandLine{
		db: db.DB,
		academicSvc: academic.NewService(
			sqlxrepos.NewCatalogRepository(db),
			sqlxrepos.NewStudentRepository(db),
			logsvc.NewConsoleLogger(std),
		),
	}
	if err := cli.run(os.Args); err != nil {
		if err == errHelp {
			os.Exit(2)
		}
		std.Fatal(err)
	}
}
