package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"lingsync/internal/importer"
	"lingsync/internal/logging"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var username string
	var password string
	var languageCode string
	var deck string
	var model string
	var dryRun bool
	var markKnown bool
	var single bool
	var status int
	var runTag bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import unlearned LingQ vocabulary as new Anki flashcards",
		Long: `Import fetches your unlearned LingQ vocabulary for one language and creates
an Anki note per card: the term on the front, the first translation hint on
the back. Cards without any translation hint are skipped with a warning.
Anki's own de-duplication decides whether a note is new; duplicates are
reported, not treated as errors.

With --mark-known every fetched card is marked known on LingQ afterward so it
is not re-imported by later runs. With --dry-run nothing is submitted or
marked; the intended actions are printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if deck == "" {
				deck = cfg.Anki.Deck
			}
			if model == "" {
				model = cfg.Anki.Model
			}

			batchSubmit := cfg.Import.BatchSubmit
			if single {
				batchSubmit = false
			}
			statusFilter := cfg.Import.StatusFilter
			if cmd.Flags().Changed("status") {
				statusFilter = status
			}

			ankiClient, err := ctx.ankiClient()
			if err != nil {
				return err
			}
			lingqClient, err := ctx.lingqClient()
			if err != nil {
				return err
			}

			if !dryRun {
				unlock, err := acquireImportLock()
				if err != nil {
					return err
				}
				defer unlock()
			}

			opts := importer.Options{
				Language:     languageCode,
				Deck:         deck,
				Model:        model,
				Tags:         cfg.Import.Tags,
				StatusFilter: statusFilter,
				DryRun:       dryRun,
				MarkKnown:    markKnown,
				BatchSubmit:  batchSubmit,
				RunID:        uuid.NewString(),
				RunTag:       runTag,
			}
			logger.Info("starting import",
				logging.String("language", languageCode),
				logging.String("deck", deck),
				logging.String("model", model),
				logging.Bool("dry_run", dryRun),
				logging.String("run_id", opts.RunID),
			)

			result, err := importer.New(ankiClient, lingqClient, logger).Run(cmd.Context(), username, password, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, report := range result.Notes {
				switch report.Outcome {
				case importer.OutcomeDryRun:
					fmt.Fprintf(out, "Would add card: %s -> %s\n", report.Term, report.Translation)
				case importer.OutcomeAdded:
					fmt.Fprintf(out, "Added card: %s -> %s\n", report.Term, report.Translation)
				case importer.OutcomeDuplicate:
					fmt.Fprintf(out, "Card was a duplicate: %s\n", report.Term)
				}
			}
			if !dryRun {
				fmt.Fprintf(out, "%d new cards added\n", result.Added)
			}

			for _, mark := range result.Marks {
				switch {
				case dryRun:
					fmt.Fprintf(out, "Would mark lingq %s as known\n", mark.Term)
				case mark.Err == nil:
					fmt.Fprintf(out, "Marked lingq %s as known\n", mark.Term)
				}
			}

			if failures := result.MarkFailures(); len(failures) > 0 {
				return fmt.Errorf("mark known failed for %d of %d cards", len(failures), len(result.Marks))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "LingQ username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "LingQ password")
	cmd.Flags().StringVarP(&languageCode, "language", "l", "", "LingQ language code (see the langs command)")
	cmd.Flags().StringVar(&deck, "deck", "", "Destination Anki deck (default: config anki.deck)")
	cmd.Flags().StringVar(&model, "model", "", "Anki note model (default: config anki.model)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print intended actions without creating notes or marking cards")
	cmd.Flags().BoolVar(&markKnown, "mark-known", false, "Mark every fetched lingQ as known so it is not re-imported; may be slow for large batches")
	cmd.Flags().BoolVar(&single, "single", false, "Submit notes one at a time instead of one addNotes batch")
	cmd.Flags().IntVar(&status, "status", 0, "LingQ learning status to import (default: config import.status_filter)")
	cmd.Flags().BoolVar(&runTag, "run-tag", false, "Tag created notes with a per-run identifier")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("language")
	return cmd
}

// acquireImportLock takes an exclusive file lock so two live imports cannot
// run concurrently and double-submit the same cards.
func acquireImportLock() (func(), error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	} else {
		dir = filepath.Join(dir, "lingsync")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
	}

	lock := flock.New(filepath.Join(dir, "import.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another import is already running; retry once it finishes")
	}
	return func() { _ = lock.Unlock() }, nil
}
