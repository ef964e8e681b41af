package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/andrewpaige1/memocards-api/cards"
)

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printTable(w io.Writer, list []cards.Card) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, card := range list {
		tags := append([]string(nil), card.Tags...)
		cards.SortTags(tags)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			card.ID, card.UpdatedAt.Format("2006-01-02 15:04"), card.Title, strings.Join(tags, ", "))
	}
	return tw.Flush()
}

func printCard(w io.Writer, card cards.Card) {
	tags := append([]string(nil), card.Tags...)
	cards.SortTags(tags)
	fmt.Fprintf(w, "# %s\n", card.Title)
	fmt.Fprintf(w, "id:      %s (v%d)\n", card.ID, card.Version)
	fmt.Fprintf(w, "created: %s\n", cards.FormatTime(card.CreatedAt))
	fmt.Fprintf(w, "updated: %s\n", cards.FormatTime(card.UpdatedAt))
	if len(tags) > 0 {
		fmt.Fprintf(w, "tags:    %s\n", strings.Join(tags, ", "))
	}
	if len(card.Images) > 0 {
		fmt.Fprintf(w, "images:  %d\n", len(card.Images))
	}
	fmt.Fprintf(w, "\n%s\n", card.Content)
}
