package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahsanfayaz52/notespark/internal/liveview"
	"github.com/ahsanfayaz52/notespark/internal/shell"
)

var (
	search   string
	listJSON bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.close()

		user, err := s.requireUser()
		if err != nil {
			return err
		}
		list := s.shell.List()
		list.Search(search)
		if err := list.SetOwner(cmd.Context(), user.ID); err != nil {
			return err
		}
		if err := list.Wait(cmd.Context()); err != nil {
			return err
		}
		if err := list.Err(); err != nil {
			return err
		}

		m := s.shell.Screen()
		if listJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(m.Notes)
		}
		printNotes(cmd.OutOrStdout(), m)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print your notes again after every change until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.close()

		if _, err := s.requireUser(); err != nil {
			return err
		}
		list := s.shell.List()
		list.Search(search)

		done := make(chan error, 1)
		go func() { done <- s.shell.Run(cmd.Context()) }()

		out := cmd.OutOrStdout()
		for {
			select {
			case <-done:
				return nil
			case <-list.Updates():
				m := s.shell.Screen()
				switch {
				case m.Screen != shell.ScreenNotes:
					fmt.Fprintln(out, "Signed out.")
					return nil
				case m.List == liveview.Error:
					return m.Err
				case m.List == liveview.Unsubscribed:
					continue
				case m.Loading:
					fmt.Fprintln(out, "Loading...")
				default:
					printNotes(out, m)
				}
			}
		}
	},
}

func printNotes(w io.Writer, m shell.Model) {
	fmt.Fprintf(w, "Welcome, %s (%d notes)\n", m.Email, len(m.Notes))
	for _, n := range m.Notes {
		fmt.Fprintf(w, "\n%s  %s\n", n.ID, n.Title)
		if n.TagLine != "" {
			fmt.Fprintf(w, "  tags: %s\n", n.TagLine)
		}
		for _, line := range strings.Split(strings.TrimSpace(n.Content), "\n") {
			if line != "" {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
		fmt.Fprintf(w, "  created %s\n", n.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func init() {
	for _, c := range []*cobra.Command{listCmd, watchCmd} {
		c.Flags().StringVarP(&search, "search", "s", "", "Only notes whose title or a tag contains this text")
		rootCmd.AddCommand(c)
	}
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
