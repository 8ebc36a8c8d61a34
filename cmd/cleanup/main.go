package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/quietpage/quietpage/app/repository"
	"github.com/quietpage/quietpage/internal/pkg/cache"
	"github.com/quietpage/quietpage/internal/pkg/database"
	"github.com/quietpage/quietpage/internal/pkg/env"
	"github.com/quietpage/quietpage/internal/pkg/images"
	"github.com/quietpage/quietpage/internal/pkg/storage"
)

func main() {
	typesFlag := flag.String("types", strings.Join(images.SweepableTypes, ","), "comma-separated image types to sweep")
	revisions := flag.Bool("revisions", false, "also search historical page revisions for references")
	dryRun := flag.Bool("dry-run", false, "report orphaned images without deleting them")
	force := flag.Bool("force", false, "delete without asking for confirmation")
	flag.Parse()

	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	cfg, err := storage.LoadConfig()
	if err != nil {
		log.Fatalf("storage configuration: %v", err)
	}
	manager, err := storage.NewManager(cfg)
	if err != nil {
		log.Fatalf("storage backends: %v", err)
	}

	repos := repository.NewRepositories(database.GetDB())
	svc := images.NewService(manager, images.NewResolver(cfg), repos, images.NewFetcher(nil))

	types := splitTypes(*typesFlag)

	orphaned, err := svc.Sweep(images.SweepOptions{
		Types:          types,
		CheckRevisions: *revisions,
		DryRun:         true,
	})
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	if len(orphaned) == 0 {
		fmt.Println("No orphaned images found.")
		return
	}

	fmt.Printf("Found %d orphaned image(s):\n", len(orphaned))
	for _, p := range orphaned {
		fmt.Printf("  %s\n", p)
	}

	if *dryRun {
		fmt.Println("Dry run, nothing deleted.")
		return
	}

	if !*force && !confirm(len(orphaned)) {
		fmt.Println("Aborted.")
		return
	}

	deleted, err := svc.Sweep(images.SweepOptions{
		Types:          types,
		CheckRevisions: *revisions,
	})
	if err != nil {
		log.Fatalf("sweep failed after deleting %d image(s): %v", len(deleted), err)
	}
	fmt.Printf("Deleted %d orphaned image(s).\n", len(deleted))
}

func splitTypes(csv string) []string {
	var out []string
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func confirm(count int) bool {
	fmt.Printf("Delete %d image(s)? [y/N]: ", count)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
