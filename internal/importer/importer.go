package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"lingsync/internal/logging"
	"lingsync/internal/services/anki"
	"lingsync/internal/services/lingq"
)

// Outcome classifies what happened to one prepared note.
type Outcome int

const (
	// OutcomeAdded means the note was created and carries a note id.
	OutcomeAdded Outcome = iota
	// OutcomeDuplicate means the flashcard app's de-duplication rejected the
	// note; this is a normal result, not a failure.
	OutcomeDuplicate
	// OutcomeDryRun means the note was prepared but submission was skipped.
	OutcomeDryRun
)

// Options configures a single import run. The three historical script
// variants (batch vs. single submission, with/without mark-known, with/without
// status filtering) collapse into these switches.
type Options struct {
	Language     string
	Deck         string
	Model        string
	Tags         []string
	StatusFilter int
	DryRun       bool
	MarkKnown    bool
	BatchSubmit  bool
	RunID        string
	RunTag       bool
}

// NoteReport describes the fate of one prepared note, in card order.
type NoteReport struct {
	Term        string
	Translation string
	Outcome     Outcome
	NoteID      int64
}

// MarkReport describes one mark-known attempt. A nil Err means the card was
// marked (or would be, in dry-run mode).
type MarkReport struct {
	CardID int64
	Term   string
	Err    error
}

// Result summarizes an import run for the command surface to render.
type Result struct {
	AnkiVersion int
	Fetched     int
	Skipped     []string
	Notes       []NoteReport
	Added       int
	Marks       []MarkReport
}

// MarkFailures returns the mark-known attempts that failed.
func (r *Result) MarkFailures() []MarkReport {
	var failed []MarkReport
	for _, mark := range r.Marks {
		if mark.Err != nil {
			failed = append(failed, mark)
		}
	}
	return failed
}

// Importer orchestrates one-way vocabulary import from LingQ into Anki.
type Importer struct {
	anki   anki.Connector
	vocab  lingq.Vocabulary
	logger *slog.Logger
}

// New builds an Importer. A nil logger is replaced with a no-op logger.
func New(connector anki.Connector, vocab lingq.Vocabulary, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Importer{anki: connector, vocab: vocab, logger: logger}
}

func validateOptions(opts Options) error {
	if strings.TrimSpace(opts.Language) == "" {
		return errors.New("import: language is required")
	}
	if strings.TrimSpace(opts.Deck) == "" {
		return errors.New("import: deck is required (flag --deck or config anki.deck)")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return errors.New("import: model is required (flag --model or config anki.model)")
	}
	return nil
}

// Run executes the import workflow: probe AnkiConnect, authenticate against
// LingQ, fetch cards, transform, submit (or simulate), and optionally mark
// every fetched card known. Errors during the connect/login/fetch steps abort
// the run with no partial result; mark-known failures are collected in the
// Result instead of aborting the loop.
func (i *Importer) Run(ctx context.Context, username, password string, opts Options) (*Result, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	version, err := i.anki.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to AnkiConnect: %w", err)
	}
	i.logger.Info("connected to AnkiConnect",
		logging.Int("version", version),
		logging.String("run_id", opts.RunID),
	)

	token, err := i.vocab.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	cards, err := i.vocab.Cards(ctx, token, opts.Language, opts.StatusFilter)
	if err != nil {
		return nil, err
	}
	i.logger.Info("fetched cards",
		logging.String("language", opts.Language),
		logging.Int("status", opts.StatusFilter),
		logging.Int("count", len(cards)),
	)

	notes, skipped := BuildNotes(cards, opts)
	if len(skipped) > 0 {
		i.logger.Warn("skipped cards without translation hints",
			logging.Int("count", len(skipped)),
			logging.String("terms", strings.Join(skipped, ", ")),
		)
	}

	result := &Result{
		AnkiVersion: version,
		Fetched:     len(cards),
		Skipped:     skipped,
	}

	if err := i.submit(ctx, notes, cards, opts, result); err != nil {
		return nil, err
	}

	if opts.MarkKnown {
		i.markKnown(ctx, token, cards, opts, result)
	}

	return result, nil
}

func (i *Importer) submit(ctx context.Context, notes []anki.Note, cards []lingq.Card, opts Options, result *Result) error {
	reports := make([]NoteReport, 0, len(notes))
	for _, note := range notes {
		reports = append(reports, NoteReport{
			Term:        note.Fields["Front"],
			Translation: note.Fields["Back"],
			Outcome:     OutcomeDryRun,
		})
	}

	switch {
	case opts.DryRun:
		// Nothing to submit; the reports already carry the intended actions.
	case opts.BatchSubmit:
		ids, err := i.anki.AddNotes(ctx, notes)
		if err != nil {
			return err
		}
		for pos, id := range ids {
			if id == nil {
				reports[pos].Outcome = OutcomeDuplicate
				continue
			}
			reports[pos].Outcome = OutcomeAdded
			reports[pos].NoteID = *id
			result.Added++
		}
	default:
		for pos, note := range notes {
			id, err := i.anki.AddNote(ctx, note)
			if errors.Is(err, anki.ErrDuplicate) {
				reports[pos].Outcome = OutcomeDuplicate
				continue
			}
			if err != nil {
				return err
			}
			reports[pos].Outcome = OutcomeAdded
			reports[pos].NoteID = id
			result.Added++
		}
	}

	result.Notes = reports
	return nil
}

// markKnown updates the learning status of every fetched card, not just the
// ones that produced a note: the known flag is about LingQ's own state, so a
// duplicate or hint-less card still gets marked. Failures are recorded and the
// loop continues.
func (i *Importer) markKnown(ctx context.Context, token string, cards []lingq.Card, opts Options, result *Result) {
	for _, card := range cards {
		mark := MarkReport{CardID: card.ID, Term: card.Term}
		if !opts.DryRun {
			if err := i.vocab.MarkKnown(ctx, token, opts.Language, card.ID); err != nil {
				mark.Err = err
				i.logger.Warn("mark known failed",
					logging.Int64("card_id", card.ID),
					logging.String("term", card.Term),
					logging.Error(err),
				)
			}
		}
		result.Marks = append(result.Marks, mark)
	}
}

// BuildNotes maps cards to note payloads, dropping cards with no translation
// hints. The transform is order-preserving: notes[i] derives from the i-th
// retained card, with the card's term on the front and its first hint on the
// back.
func BuildNotes(cards []lingq.Card, opts Options) (notes []anki.Note, skipped []string) {
	tags := append([]string(nil), opts.Tags...)
	if opts.RunTag && opts.RunID != "" {
		tags = append(tags, "lingq-run-"+shortRunID(opts.RunID))
	}

	for _, card := range cards {
		if len(card.Hints) == 0 {
			skipped = append(skipped, card.Term)
			continue
		}
		notes = append(notes, anki.Note{
			DeckName:  opts.Deck,
			ModelName: opts.Model,
			Fields: map[string]string{
				"Front": card.Term,
				"Back":  card.Hints[0].Text,
			},
			Tags: tags,
		})
	}
	return notes, skipped
}

func shortRunID(runID string) string {
	if idx := strings.IndexByte(runID, '-'); idx > 0 {
		return runID[:idx]
	}
	return runID
}
