package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/pressgang/wpmigrate/internal/assets"
	"github.com/pressgang/wpmigrate/internal/config"
	"github.com/pressgang/wpmigrate/internal/content"
	"github.com/pressgang/wpmigrate/internal/database"
	"github.com/pressgang/wpmigrate/internal/importer"
	"github.com/pressgang/wpmigrate/internal/parsers"
)

// ImportCommand handles importing a WordPress export file into the
// destination blog database.
type ImportCommand struct {
	File         string
	DatabasePath string
	BlogTitle    string
	AssetsDir    string
	DryRun       bool
	SkipAssets   bool
	Verbose      bool

	setFlags map[string]bool // flags the user passed explicitly
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.File, "file", "", "Path to the WordPress export XML file (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the destination blog database")
	fs.StringVar(&cmd.BlogTitle, "blog", "", "Title for the destination blog if one has to be created")
	fs.StringVar(&cmd.AssetsDir, "assets-dir", config.DefaultAssetsDir, "Directory imported media files are written under")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Make every import decision without persisting or fetching anything")
	fs.BoolVar(&cmd.SkipAssets, "skip-assets", false, "Skip importing media files")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Log each imported entity")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a WordPress export (WXR) file into a blog database.\n\n")
		fmt.Fprintf(os.Stderr, "Categories, tags, posts, comments and media files are imported in\n")
		fmt.Fprintf(os.Stderr, "that order. Entities already present in the database are reused, so\n")
		fmt.Fprintf(os.Stderr, "re-running the same export creates nothing new.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Preview what an import would create:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file export.xml -dry-run\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Import for real, without media files:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file export.xml -skip-assets\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.setFlags = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		cmd.setFlags[f.Name] = true
	})

	if cmd.File == "" {
		fs.Usage()
		return fmt.Errorf("-file is required")
	}

	return nil
}

// applyConfig fills in everything the user did not pass explicitly on
// the command line from the environment config. An explicit flag wins
// even when its value equals the default.
func (cmd *ImportCommand) applyConfig(cfg *config.Config) {
	if cmd.BlogTitle == "" {
		cmd.BlogTitle = cfg.Blog.Title
	}
	if !cmd.setFlags["db"] {
		cmd.DatabasePath = cfg.Database.Path
	}
	if !cmd.setFlags["assets-dir"] {
		cmd.AssetsDir = cfg.Assets.BaseDir
	}
}

func (cmd *ImportCommand) Run() error {
	cfg := config.NewConfig()
	cmd.applyConfig(cfg)

	file, err := os.Open(cmd.File)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer file.Close()

	doc, err := parsers.ParseWXR(file)
	if err != nil {
		return err
	}

	db, err := database.New(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	blog, err := db.EnsureBlog(cmd.BlogTitle)
	if err != nil {
		return err
	}

	fetcher := assets.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
	resolver := assets.NewResolver(cmd.AssetsDir, fetcher)
	normalizer := content.NewNormalizer(cfg.Assets.URLPrefix)

	imp := importer.New(db, resolver, normalizer, blog.ID, importer.Options{
		SkipAssets: cmd.SkipAssets,
		Verbose:    cmd.Verbose,
	})

	var report *importer.Report
	if cmd.DryRun {
		report, err = imp.Simulate(doc)
	} else {
		report, err = imp.Commit(doc)
	}
	if err != nil {
		return err
	}

	printReport(report, cmd.DryRun)
	return nil
}

func printReport(report *importer.Report, dryRun bool) {
	if dryRun {
		fmt.Println("Dry run - nothing was written. A real import would create:")
	} else {
		fmt.Println("Import complete. Created:")
	}

	if len(report.Counts) == 0 {
		fmt.Println("  nothing - everything in the export was already imported")
	}
	for _, kind := range importer.Kinds {
		if entry, ok := report.Counts[kind]; ok {
			fmt.Printf("  %s: %d\n", entry.Label, entry.Count)
		}
	}

	if len(report.Diagnostics) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d item(s) skipped:\n", len(report.Diagnostics))
		for _, diag := range report.Diagnostics {
			fmt.Fprintf(os.Stderr, "  %s\n", diag)
		}
	}
}
