package cmd

import (
	"fmt"
	"log"
	"partsfinder-backend/internal/scrapers/craigslist"
	"partsfinder-backend/internal/scrapers/ebay"
	"partsfinder-backend/internal/search"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	searchCity          string
	searchNoClassifieds bool
	searchLimit         int
)

func init() {
	searchCmd.Flags().StringVar(&searchCity, "city", "", "Search a single craigslist region instead of every metro.")
	searchCmd.Flags().BoolVar(&searchNoClassifieds, "no-classifieds", false, "Skip craigslist.")
	searchCmd.Flags().IntVar(&searchLimit, "limit", ebay.DefaultLimit, "Maximum number of ebay results.")
	rootCmd.AddCommand(searchCmd)
}

func formatOptional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncateTitle(title string, n int) string {
	runes := []rune(title)
	if len(runes) <= n {
		return title
	}
	return string(runes[:n-1]) + "…"
}

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Searches every source with default preferences and prints the merged results.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := strings.Join(args, " ")

		var sources []search.Source
		ebayCfg := readEbayEnv()
		if ebayCfg.configured() {
			sources = append(sources, ebay.NewClient(ebay.ClientOptions{
				BaseURL: ebayCfg.baseUrl,
				Limit:   searchLimit,
			}, ebayCfg.credentials(), tel))
		} else {
			log.Println("EBAY_APP_ID or EBAY_CERT_ID is not set, skipping ebay")
		}
		sources = append(sources, craigslist.Source{
			Client: craigslist.NewClient(craigslist.ClientOptions{}, tel),
		})

		prefs := search.Preferences{CraigslistCity: searchCity}
		if searchNoClassifieds {
			disabled := false
			prefs.CraigslistEnabled = &disabled
		}

		aggregation := search.NewAggregator(tel, 0, sources...).Aggregate(cmd.Context(), query, prefs)

		t := newTable()
		t.AppendHeader(table.Row{"Source", "Title", "Price", "Location", "Listed"})
		for _, listing := range aggregation.Results {
			listed := ""
			if listing.ListingDate != nil {
				listed = listing.ListingDate.Format("2006-01-02")
			}
			t.AppendRow(table.Row{
				listing.Source,
				truncateTitle(listing.Title, 60),
				formatOptional(listing.Price),
				formatOptional(listing.Location),
				listed,
			})
		}
		t.Render()

		summary := newTable()
		summary.AppendHeader(table.Row{"Source", "Status", "Count", "Error"})
		for name, report := range aggregation.Sources {
			summary.AppendRow(table.Row{name, report.Status, report.Count, report.Error})
		}
		summary.Render()
		fmt.Printf("%d results for \"%s\"\n", len(aggregation.Results), query)
	},
}
