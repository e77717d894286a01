package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lingsync/internal/language"
	"lingsync/internal/logging"
)

func newLangsCommand(ctx *commandContext) *cobra.Command {
	var username string
	var password string
	var output string

	cmd := &cobra.Command{
		Use:   "langs",
		Short: "List LingQ languages available to your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			client, err := ctx.lingqClient()
			if err != nil {
				return err
			}

			token, err := client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			logger.Info("authenticated with LingQ", logging.String("user", username))

			languages, err := client.Languages(cmd.Context(), token)
			if err != nil {
				return err
			}

			mode, err := resolveOutputMode(output)
			if err != nil {
				return err
			}
			switch mode {
			case outputJSON:
				return writeJSON(cmd, languages)
			case outputTable:
				rows := make([][]string, 0, len(languages))
				for _, lang := range languages {
					name := lang.Title
					if name == "" {
						name = language.DisplayName(lang.Code)
					}
					rows = append(rows, []string{lang.Code, name})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"CODE", "LANGUAGE"}, rows))
				return nil
			default:
				for _, lang := range languages {
					fmt.Fprintln(cmd.OutOrStdout(), lang.Code)
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "LingQ username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "LingQ password")
	addOutputFlag(cmd, &output)
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
