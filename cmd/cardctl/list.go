package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrewpaige1/memocards-api/cards"
)

func newListCmd(a *app) *cobra.Command {
	var (
		search string
		tags   []string
		sortBy string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards matching a search and tag filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sort, err := cards.ParseSort(sortBy)
			if err != nil {
				return err
			}
			collection, err := a.store.List(cmd.Context(), 0)
			if err != nil {
				return err
			}
			visible := collection.Query(cards.Query{Search: search, Tags: tags, Sort: sort})

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, visible)
			}
			if len(visible) == 0 {
				fmt.Fprintln(out, "No cards found.")
				return nil
			}
			return printTable(out, visible)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Accent and case insensitive search in title, content and tags")
	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "Only cards carrying this tag (repeatable, all must match)")
	cmd.Flags().StringVar(&sortBy, "sort", string(cards.SortDateDesc), "date-desc, date-asc, alpha-asc or alpha-desc")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func newTagsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List every tag in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, err := a.store.List(cmd.Context(), 0)
			if err != nil {
				return err
			}
			for _, tag := range collection.AvailableTags() {
				fmt.Fprintln(cmd.OutOrStdout(), tag)
			}
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := a.store.Get(cmd.Context(), 0, args[0])
			if err != nil {
				return fmt.Errorf("card %s: %w", args[0], err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), card)
			}
			printCard(cmd.OutOrStdout(), card)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}
