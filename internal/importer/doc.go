// Package importer holds the import workflow: fetch unlearned vocabulary from
// LingQ, transform each card into an Anki note, submit the notes (or simulate
// in dry-run mode), and optionally mark the source cards known afterward.
package importer
