// Command lingsync imports LingQ vocabulary into Anki through AnkiConnect.
//
// Data lines are written to stdout, one value per line, so commands compose
// with shell pipelines; progress and warnings go to stderr.
package main
