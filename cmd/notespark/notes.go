package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahsanfayaz52/notespark/internal/models"
	"github.com/ahsanfayaz52/notespark/internal/store"
)

var (
	noteTitle   string
	noteContent string
	noteTags    string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.close()

		ed := s.shell.Editor()
		ed.SetDraft(models.Draft{Title: noteTitle, Content: noteContent, Tags: noteTags})
		id, err := ed.Submit(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change the title, content or tags of a note",
	Long:  `Only the fields given as flags change; the others keep their stored value.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.close()

		ed := s.shell.Editor()
		if err := ed.Load(cmd.Context(), args[0]); err != nil {
			return err
		}
		d := ed.Draft()
		if cmd.Flags().Changed("title") {
			d.Title = noteTitle
		}
		if cmd.Flags().Changed("content") {
			d.Content = noteContent
		}
		if cmd.Flags().Changed("tags") {
			d.Tags = noteTags
		}
		ed.SetDraft(d)
		_, err = ed.Submit(cmd.Context())
		return err
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.close()

		if err := s.checkOwner(cmd.Context(), args[0]); err != nil {
			return err
		}
		return s.shell.List().Delete(cmd.Context(), args[0])
	},
}

// checkOwner fails unless note id belongs to the signed-in user.
func (s *session) checkOwner(ctx context.Context, id string) error {
	user, err := s.requireUser()
	if err != nil {
		return err
	}
	n, err := s.app.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != user.ID {
		return &store.Error{Op: "delete", Err: store.ErrNotFound}
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVarP(&noteTitle, "title", "t", "", "Note title")
		c.Flags().StringVarP(&noteContent, "content", "c", "", "Note content (Markdown)")
		c.Flags().StringVar(&noteTags, "tags", "", "Comma-separated tags")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(rmCmd)
}
