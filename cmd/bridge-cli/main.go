package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/annotation"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/compare"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/iiif"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/mapwarper"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/mosaic"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/coords"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/database"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/utils"
)

// Command-line companion to the bridge server, for the manual
// copy/import workflow: print a map's annotation, print a combined
// mosaic annotation, or check how a local annotation file relates to
// the platform's georeferencing.

var (
	warperURL string
	origin    string
)

var rootCmd = &cobra.Command{
	Use:   "bridge-cli",
	Short: "Fetch and compare georeference annotations from the command line",
}

var annotationCmd = &cobra.Command{
	Use:   "annotation <map-id>",
	Short: "Print the georeference annotation for one map",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnnotation,
}

var mosaicCmd = &cobra.Command{
	Use:   "mosaic <layer-id>",
	Short: "Print the combined annotation page for a mosaic",
	Args:  cobra.ExactArgs(1),
	RunE:  runMosaic,
}

var compareCmd = &cobra.Command{
	Use:   "compare <map-id> <annotation-file>",
	Short: "Compare the platform's georeferencing with a local annotation file",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompare,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&warperURL, "warper", "", "mapwarper base URL (default from MAPBRIDGE_MAPWARPER_URL)")
	rootCmd.PersistentFlags().StringVar(&origin, "origin", "http://localhost:8080", "serving origin used in generated ids")
	rootCmd.AddCommand(annotationCmd, mosaicCmd, compareCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *mapwarper.Client {
	base := warperURL
	if base == "" {
		base = utils.LoadConfig().MapwarperURL
	}
	return mapwarper.NewClient(base)
}

// fetchGeoreferenced accepts a map id or, failing that, a title to
// search for.
func fetchGeoreferenced(ctx context.Context, client *mapwarper.Client, ref string) (*models.GeoreferencedMap, error) {
	rec, err := client.FindMap(ctx, ref)
	if err != nil {
		return nil, err
	}
	gcps, err := client.GetGCPs(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	mask, err := client.GetMask(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return &models.GeoreferencedMap{
		ImageID: iiif.ServiceID(origin, rec.ID),
		Width:   rec.Width,
		Height:  rec.Height,
		GCPs:    gcps,
		Mask:    coords.FlipPolygon(mask, float64(rec.Height)),
	}, nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func runAnnotation(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	m, err := fetchGeoreferenced(ctx, newClient(), args[0])
	if err != nil {
		return err
	}
	if len(m.GCPs) == 0 {
		return fmt.Errorf("map %s has no control points", args[0])
	}
	return printJSON(annotation.ForMap(*m, m.ImageID+"/georef-annotation"))
}

func runMosaic(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.Open(database.Config{DSN: "file:bridgecli?mode=memory&cache=shared"})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return err
	}

	cfg := utils.LoadConfig()
	agg := mosaic.NewAggregator(newClient(), mosaic.NewCache(db, cfg.CacheTTL), cfg.FetchWorkers)
	payload, err := agg.CombinedAnnotation(ctx, args[0], origin, true)
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	body, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}

	source, err := fetchGeoreferenced(ctx, newClient(), args[0])
	if err != nil {
		return err
	}

	var target models.GeoreferencedMap
	if parsed := annotation.Parse(body); len(parsed) > 0 {
		target = parsed[0]
	}

	return printJSON(compare.Status(source.GCPs, target.GCPs, source.Mask, target.Mask))
}
