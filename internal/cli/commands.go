package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/users-web/internal/dto"
	"github.com/noah-isme/users-web/internal/models"
	"github.com/noah-isme/users-web/internal/service"
)

const (
	tabPadding     = 2
	testAPIPerPage = "5"
	testAPIPreview = 3
)

// errReported marks failures whose message was already printed.
var errReported = errors.New("command failed")

// ErrReported reports whether err was already shown to the user.
func ErrReported(err error) bool {
	return errors.Is(err, errReported)
}

func newTestAPICmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test-api",
		Short: "Check the connection to the User API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := connect(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Testing connection to User API...")

			q := service.BuildListQuery(dto.UserListParams{Page: "1", PerPage: testAPIPerPage})
			page, err := c.users.List(cmd.Context(), q)
			if err != nil {
				fmt.Fprintf(out, "API connection failed: %v\n", err)
				fmt.Fprintf(out, "Make sure the Phoenix API is running on %s\n", c.baseURL)
				return errReported
			}

			fmt.Fprintln(out, "API connection successful!")
			fmt.Fprintf(out, "Found %d users\n", len(page.Users))
			for i, user := range page.Users {
				if i == testAPIPreview {
					break
				}
				fmt.Fprintf(out, "- %s %s (%s)\n", user.FirstName, user.LastName, user.Gender)
			}
			return nil
		},
	}
}

func newImportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Trigger the bulk user import",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := connect(opts)
			if err != nil {
				return err
			}
			message, err := c.users.Import(cmd.Context())
			if err != nil {
				if service.RemoteRejected(err) {
					fmt.Fprintf(cmd.OutOrStdout(), "Import failed: %v\n", err)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "API connection failed: %v\n", err)
					fmt.Fprintf(cmd.OutOrStdout(), "Make sure the Phoenix API is running on %s\n", c.baseURL)
				}
				return errReported
			}
			fmt.Fprintln(cmd.OutOrStdout(), message)
			return nil
		},
	}
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var params dto.UserListParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users with the same filters as the web listing",
		Args:  cobra.NoArgs,
		Example: `  # Second page of users born in the nineties, newest first
  usersctl list --birthdate-from 1990-01-01 --birthdate-to 1999-12-31 --sort birthdate --direction desc --page 2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := connect(opts)
			if err != nil {
				return err
			}
			page, err := c.users.List(cmd.Context(), service.BuildListQuery(params))
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "API connection failed: %v\n", err)
				return errReported
			}
			renderUserTable(cmd, page)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.FirstName, "first-name", "", "filter by first name")
	cmd.Flags().StringVar(&params.LastName, "last-name", "", "filter by last name")
	cmd.Flags().StringVar(&params.Gender, "gender", "", "filter by gender (male or female)")
	cmd.Flags().StringVar(&params.BirthdateFrom, "birthdate-from", "", "earliest birthdate, YYYY-MM-DD")
	cmd.Flags().StringVar(&params.BirthdateTo, "birthdate-to", "", "latest birthdate, YYYY-MM-DD")
	cmd.Flags().StringVar(&params.Sort, "sort", "", "sort field, e.g. last_name")
	cmd.Flags().StringVar(&params.Direction, "direction", "", "sort direction (asc or desc)")
	cmd.Flags().StringVar(&params.Page, "page", "", "page number (default 1)")
	cmd.Flags().StringVar(&params.PerPage, "per-page", "", "page size, at most 50 (default 10)")

	return cmd
}

func renderUserTable(cmd *cobra.Command, page *models.UserPage) {
	out := cmd.OutOrStdout()
	if len(page.Users) == 0 {
		fmt.Fprintln(out, "No users found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(w, "ID\tFirst Name\tLast Name\tBirthdate\tGender")
	for _, user := range page.Users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", user.IDValue(), user.FirstName, user.LastName, user.Birthdate, user.Gender.Label())
	}
	_ = w.Flush()

	p := page.Pagination
	fmt.Fprintf(out, "\nPage %d of %d (%d users)\n", p.Page, p.TotalPages, p.TotalCount)
}
