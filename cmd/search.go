package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brightlane/prospect-cli/internal/export"
	"github.com/brightlane/prospect-cli/internal/model"
	"github.com/brightlane/prospect-cli/internal/pipeline"
	"github.com/brightlane/prospect-cli/internal/reconcile"
)

var (
	searchCategory string
	searchPlace    string
	searchLat      float64
	searchLon      float64
	searchRadiusM  float64
	searchOut      string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a business search and reconcile it against the store",
}

var searchTypedCmd = &cobra.Command{
	Use:   "typed",
	Short: "Search by category and place name",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := model.NewTypedSearch(searchCategory, searchPlace)
		return runSearch(cmd, sc)
	},
}

var searchMapCmd = &cobra.Command{
	Use:   "map",
	Short: "Search by category around a map coordinate",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
			return eris.New("no location selected: --lat and --lon are required")
		}
		sc := model.NewMapSearch(searchCategory, searchLat, searchLon, searchRadiusM)
		return runSearch(cmd, sc)
	},
}

// runSearch drives one search end to end: validate, assemble, reconcile,
// export. A store failure downgrades to display-only output instead of
// losing the fetch.
func runSearch(cmd *cobra.Command, sc model.SearchContext) error {
	ctx := cmd.Context()

	if err := sc.Validate(); err != nil {
		return err
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	pc, err := initPlaces()
	if err != nil {
		return err
	}

	asm := pipeline.NewAssembler(pc, initEmail())
	batch, err := asm.Run(ctx, sc)
	if err != nil {
		return eris.Wrap(err, "search")
	}
	if len(batch) == 0 {
		zap.L().Info("no results found", zap.String("context", sc.Label()))
		return nil
	}

	engine := reconcile.New(st)
	outcome, err := engine.Reconcile(ctx, batch, sc)
	if err != nil {
		zap.L().Error("store update failed, results are display-only", zap.Error(err))
	}

	outPath := searchOut
	if outPath == "" {
		outPath = sc.Filename()
	}
	if err := export.WriteFile(outPath, outcome.Columns, outcome.Records); err != nil {
		return err
	}
	zap.L().Info("results exported",
		zap.String("file", outPath),
		zap.Int("records", len(outcome.Records)),
		zap.Bool("persisted", outcome.Persisted),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}

func init() {
	searchCmd.PersistentFlags().StringVar(&searchCategory, "category", "", "business category, e.g. restaurant (required)")
	searchCmd.PersistentFlags().StringVar(&searchOut, "out", "", "output xlsx path (default derived from the search)")
	_ = searchCmd.MarkPersistentFlagRequired("category")

	searchTypedCmd.Flags().StringVar(&searchPlace, "place", "", "place name, e.g. Nijmegen (required)")
	_ = searchTypedCmd.MarkFlagRequired("place")

	searchMapCmd.Flags().Float64Var(&searchLat, "lat", 0, "center latitude (required)")
	searchMapCmd.Flags().Float64Var(&searchLon, "lon", 0, "center longitude (required)")
	searchMapCmd.Flags().Float64Var(&searchRadiusM, "radius", 1000, "search radius in meters")

	searchCmd.AddCommand(searchTypedCmd)
	searchCmd.AddCommand(searchMapCmd)
	rootCmd.AddCommand(searchCmd)
}
