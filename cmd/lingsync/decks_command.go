package main

import (
	"github.com/spf13/cobra"
)

func newDecksCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "decks",
		Short: "List Anki decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.connectAnki(cmd.Context())
			if err != nil {
				return err
			}
			decks, err := client.DeckNames(cmd.Context())
			if err != nil {
				return err
			}
			return renderList(cmd, output, "DECK", decks)
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List Anki note models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.connectAnki(cmd.Context())
			if err != nil {
				return err
			}
			models, err := client.ModelNames(cmd.Context())
			if err != nil {
				return err
			}
			return renderList(cmd, output, "MODEL", models)
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newModelCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "model <name>",
		Short: "List the field names of an Anki note model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.connectAnki(cmd.Context())
			if err != nil {
				return err
			}
			fields, err := client.ModelFieldNames(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderList(cmd, output, "FIELD", fields)
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}
