package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *App) newBooksCmd() *cobra.Command {
	books := &cobra.Command{
		Use:   "books",
		Short: "Browse the catalog",
	}

	var (
		page  int
		limit int
		title string
	)

	list := &cobra.Command{
		Use:   "list",
		Short: "List books, one page at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.httpClient().ListBooks(cmd.Context(), page, limit, title)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tCATEGORIES\tSTATUS")
			for _, b := range res.Books {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, strings.Join(b.Categories, ", "), b.Status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			m := res.Metadata
			fmt.Fprintf(a.out, "page %d of %d, %d book(s)\n", m.CurrentPage, m.LastPage, m.TotalRecords)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&limit, "limit", 10, "books per page")
	list.Flags().StringVar(&title, "title", "", "filter by title substring")

	books.AddCommand(list)
	return books
}

func (a *App) newBorrowCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "borrow <book-id>",
		Short: "Borrow a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authorizedClient(cmd.Context())
			if err != nil {
				return err
			}

			b, err := c.Borrow(cmd.Context(), args[0], userID)
			if err != nil {
				return fmt.Errorf("borrow: %w", err)
			}

			borrower := ""
			if b.BorrowedBy != nil {
				borrower = *b.BorrowedBy
			}
			fmt.Fprintf(a.out, "%q borrowed by %s\n", b.Title, borrower)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "borrow on behalf of this user id (admins only)")
	return cmd
}

func (a *App) newReturnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return <book-id>",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authorizedClient(cmd.Context())
			if err != nil {
				return err
			}

			b, err := c.Return(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("return: %w", err)
			}

			fmt.Fprintf(a.out, "%q returned\n", b.Title)
			return nil
		},
	}
}
