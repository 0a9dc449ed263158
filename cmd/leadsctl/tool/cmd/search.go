package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/octobees/mapleads/internal/cache"
	"github.com/octobees/mapleads/internal/dto"
	"github.com/octobees/mapleads/internal/entity"
	"github.com/octobees/mapleads/internal/geoapify"
	"github.com/octobees/mapleads/internal/nominatim"
	"github.com/octobees/mapleads/internal/repository"
	"github.com/octobees/mapleads/internal/service"
)

var (
	searchCity     string
	searchBBox     string
	searchRefresh  bool
	searchUseDB    bool
	searchJSON     bool
	searchMaxShown int
)

// searchCmd runs one lead search and prints the ranked places
var searchCmd = &cobra.Command{
	Use:   "search [category]",
	Short: "Search for businesses without a website",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, zl, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = zl.Sync() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		req := dto.SearchRequest{City: searchCity, Refresh: searchRefresh}
		if len(args) == 1 {
			req.Category = args[0]
		}
		if searchBBox != "" {
			box, err := parseFloats(searchBBox)
			if err != nil {
				return err
			}
			req.BBox = box
		}

		var store cache.Store = cache.NewMemoryStore(0)
		if searchUseDB {
			pool, err := connect(ctx, cfg, zl)
			if err != nil {
				return err
			}
			defer pool.Close()
			store = repository.NewPGXSearchCacheRepository(pool)
		}

		places := geoapify.NewClient(geoapify.Options{
			APIKey:            cfg.Geoapify.APIKey,
			BaseURL:           cfg.Geoapify.BaseURL,
			RequestsPerSecond: cfg.Geoapify.RequestsPerSecond,
			Timeout:           cfg.UpstreamTimeout,
			Logger:            zl,
		})
		geocoder := nominatim.NewClient(nominatim.Options{
			BaseURL:   cfg.NominatimBaseURL,
			UserAgent: cfg.NominatimAgent,
			Timeout:   cfg.UpstreamTimeout,
			Logger:    zl,
		})

		res, err := service.NewSearchService(places, geocoder, store, cfg.Search, zl).Search(ctx, req)
		if err != nil {
			return err
		}

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printSearch(res, searchMaxShown)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchCity, "city", "", "city to search instead of the default area")
	searchCmd.Flags().StringVar(&searchBBox, "bbox", "", "explicit area as lon1,lat1,lon2,lat2")
	searchCmd.Flags().BoolVar(&searchRefresh, "refresh", false, "ignore cached results")
	searchCmd.Flags().BoolVar(&searchUseDB, "db", false, "use the database search cache (DATABASE_URL)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the raw response as JSON")
	searchCmd.Flags().IntVarP(&searchMaxShown, "top", "n", 25, "number of places to print, 0 for all")
	rootCmd.AddCommand(searchCmd)
}

func printSearch(res *dto.SearchResponse, top int) {
	header := color.New(color.Bold)
	header.Printf("%d leads for %q in %s (%s, scope %s)\n", res.Count, res.Category, res.Scope.Label, res.Source, res.Scope.Source)

	for _, b := range res.Buckets {
		if b.Err != nil {
			color.Yellow("  bucket %s %s: %v\n", b.Bucket, b.Status, b.Err)
		}
	}

	shown := res.Places
	if top > 0 && len(shown) > top {
		shown = shown[:top]
	}
	for i, p := range shown {
		scoreColor(p.QualityScore).Printf("%3d ", p.QualityScore)
		fmt.Printf("%2d. %s", i+1, p.Name)
		if p.Phone != "" {
			color.New(color.FgCyan).Printf("  %s", p.Phone)
		}
		fmt.Println()
		if addr := placeAddress(p); addr != "" {
			color.New(color.Faint).Printf("        %s\n", addr)
		}
	}
	if len(shown) < len(res.Places) {
		fmt.Printf("... %d more\n", len(res.Places)-len(shown))
	}
}

func scoreColor(score int) *color.Color {
	switch {
	case score >= 50:
		return color.New(color.FgGreen)
	case score >= 25:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func placeAddress(p entity.Place) string {
	if p.FormattedAddress != "" {
		return p.FormattedAddress
	}
	return p.Address
}

func parseFloats(value string) ([]float64, error) {
	parts := strings.Split(value, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --bbox value %q: %w", value, err)
		}
		out = append(out, f)
	}
	return out, nil
}
