package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrewpaige1/memocards-api/cards"
)

type cardFlags struct {
	title       string
	content     string
	contentFile string
	tags        []string
	images      []string
	noAssist    bool
}

func (f *cardFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Card title")
	cmd.Flags().StringVar(&f.content, "content", "", "Card content (Markdown)")
	cmd.Flags().StringVar(&f.contentFile, "content-file", "", "Read content from a file, - for stdin")
	cmd.Flags().StringArrayVarP(&f.tags, "tag", "t", nil, "Tag (repeatable)")
	cmd.Flags().StringArrayVar(&f.images, "image", nil, "Image file to embed (repeatable)")
	cmd.Flags().BoolVar(&f.noAssist, "no-assist", false, "Keep content as typed, no formatting or tag suggestions")
	cmd.MarkFlagsMutuallyExclusive("content", "content-file")
}

// loadContent resolves --content/--content-file. ok is false when neither was given.
func (f *cardFlags) loadContent(cmd *cobra.Command) (content string, ok bool, err error) {
	switch {
	case cmd.Flags().Changed("content-file"):
		data, err := readInput(cmd.InOrStdin(), f.contentFile)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	case cmd.Flags().Changed("content"):
		return f.content, true, nil
	}
	return "", false, nil
}

func newAddCmd(a *app) *cobra.Command {
	var f cardFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, ok, err := f.loadContent(cmd)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("either --content or --content-file is required")
			}
			images, err := embedImages(f.images)
			if err != nil {
				return err
			}

			draft := cards.Draft{Title: f.title, Content: content, Tags: f.tags, Images: images}
			if err := draft.Validate(); err != nil {
				return err
			}
			if !f.noAssist {
				res := a.assist.FormatAndTag(cmd.Context(), draft.Content)
				if res.Notice != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), res.Notice)
				}
				draft.Content = res.Content
				draft.Tags = append(draft.Tags, res.Tags...)
			}

			card, err := a.store.Create(cmd.Context(), 0, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created card %s\n", card.ID)
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		f           cardFlags
		clearImages bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title, content, tags or images of a card",
		Long: `Only the fields given on the command line change. --tag replaces the whole
tag list and --image appends to the existing images unless --clear-images is set.
Changed content is reformatted unless --no-assist is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := a.store.Get(cmd.Context(), 0, args[0])
			if err != nil {
				return fmt.Errorf("card %s: %w", args[0], err)
			}

			draft := cards.Draft{
				Title:   current.Title,
				Content: current.Content,
				Tags:    current.Tags,
				Images:  current.Images,
			}
			if cmd.Flags().Changed("title") {
				draft.Title = f.title
			}
			content, ok, err := f.loadContent(cmd)
			if err != nil {
				return err
			}
			if ok {
				draft.Content = content
			}
			if cmd.Flags().Changed("tag") {
				draft.Tags = f.tags
			}
			if clearImages {
				draft.Images = nil
			}
			images, err := embedImages(f.images)
			if err != nil {
				return err
			}
			draft.Images = append(append([]string(nil), draft.Images...), images...)

			if err := draft.Validate(); err != nil {
				return err
			}
			if !f.noAssist && draft.Content != current.Content {
				res := a.assist.Format(cmd.Context(), draft.Content)
				if res.Notice != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), res.Notice)
				}
				draft.Content = res.Content
			}

			card, err := a.store.Update(cmd.Context(), 0, args[0], draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated card %s (v%d)\n", card.ID, card.Version)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&clearImages, "clear-images", false, "Remove existing images first")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Delete(cmd.Context(), 0, args[0]); err != nil {
				return fmt.Errorf("card %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %s\n", args[0])
			return nil
		},
	}
}
