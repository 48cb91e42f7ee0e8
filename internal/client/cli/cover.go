package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func (a *App) newCoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cover <book-id> <image-file>",
		Short: "Upload a cover image for a book (admins only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			c, err := a.authorizedClient(cmd.Context())
			if err != nil {
				return err
			}

			if err := c.UploadCover(cmd.Context(), args[0], http.DetectContentType(data), data); err != nil {
				return fmt.Errorf("cover: %w", err)
			}

			fmt.Fprintf(a.out, "cover uploaded for %s (%d bytes)\n", args[0], len(data))
			return nil
		},
	}
}
