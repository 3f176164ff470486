package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"rag-knowledge-be/internal/bootstrap"
	"rag-knowledge-be/internal/config"
	"rag-knowledge-be/pkg/database"

	"github.com/fatih/color"
)

// Prints the data consistency report to stdout. With -fix it removes
// orphaned storage; -dry-run previews what -fix would do.
func main() {
	fix := flag.Bool("fix", false, "auto-fix orphaned storage")
	dryRun := flag.Bool("dry-run", false, "preview fixes without deleting anything")
	flag.Parse()

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	ctx := context.Background()

	fmt.Println(container.ConsistencyService.DetailedReport(ctx))

	if !*fix && !*dryRun {
		return
	}

	result := container.ConsistencyService.AutoFix(ctx, *dryRun)
	if result.DryRun {
		color.Yellow("Dry run: %d of %d issues would be fixed", result.IssuesFixed, result.IssuesFound)
	} else {
		color.Green("Fixed %d of %d issues", result.IssuesFixed, result.IssuesFound)
	}
	for _, action := range result.ActionsTaken {
		fmt.Println("  -", action)
	}
	for _, fixErr := range result.Errors {
		color.Red("  ! %s", fixErr)
	}
}
