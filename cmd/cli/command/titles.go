package command

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"yamdb/cmd/cli/command/client"
)

var titlesCmd = &cobra.Command{
	Use:   "titles",
	Short: "List titles with optional filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		filters := map[string]string{}
		for _, f := range []string{"category", "genre", "name", "year"} {
			filters[f], _ = cmd.Flags().GetString(f)
		}
		page, _ := cmd.Flags().GetInt("page")

		c := client.NewHTTPClient(apiURL)
		c.SetToken(token)
		result, err := c.ListTitles(filters, page)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tYEAR\tRATING\tCATEGORY\tGENRES")
		for _, t := range result.Data {
			rating := "-"
			if t.Rating != nil {
				rating = fmt.Sprint(*t.Rating)
			}
			category := "-"
			if t.Category != nil {
				category = t.Category.Slug
			}
			genres := make([]string, 0, len(t.Genre))
			for _, g := range t.Genre {
				genres = append(genres, g.Slug)
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n", t.ID, t.Name, t.Year, rating, category, strings.Join(genres, ","))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("page %d/%d, %d total\n", result.Page, result.TotalPages, result.Total)
		return nil
	},
}

func init() {
	titlesCmd.Flags().String("category", "", "category slug")
	titlesCmd.Flags().String("genre", "", "genre slug")
	titlesCmd.Flags().String("name", "", "name substring")
	titlesCmd.Flags().String("year", "", "release year")
	titlesCmd.Flags().Int("page", 1, "page number")
}
