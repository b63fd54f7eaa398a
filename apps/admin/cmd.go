package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"

	"github.com/akadahq/akada/core/academic"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db          *sql.DB
	academicSvc *academic.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|down|status [ARGS] - run database migrations")
	fmt.Println("  progress -season SEASON_ID [-semester SEMESTER_ID] [-scope SCOPE] [-scope-id ID] [-degree-type TYPE] - run a batch progression")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	progressCmd := flag.NewFlagSet("progress", flag.ExitOnError)
	progressSeason := progressCmd.String("season", "", "The target season id.")
	progressSemester := progressCmd.String("semester", "", "The target semester id. Defaults to the season's first semester.")
	progressScope := progressCmd.String("scope", "ALL", "Organizational scope: ALL, FACULTY, DEPARTMENT or PROGRAM.")
	progressScopeID := progressCmd.String("scope-id", "", "The faculty/department/program id; required for all scopes but ALL.")
	progressDegreeType := progressCmd.String("degree-type", "", "Optional degree-type filter.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2], args[3:]...)
	case "progress":
		if err := progressCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *progressSeason == "" {
			progressCmd.Usage()
			return errHelp
		}
		return cli.progress(academic.ProgressionRequest{
			SeasonID:   *progressSeason,
			SemesterID: *progressSemester,
			Scope:      academic.Scope(*progressScope),
			ScopeID:    *progressScopeID,
			DegreeType: academic.DegreeType(*progressDegreeType),
		})
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) progress(req academic.ProgressionRequest) error {
	res, err := cli.academicSvc.RunProgression(context.Background(), req)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
