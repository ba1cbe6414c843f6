package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chtimi59/getmaptiles/internal/core/usecases"
	"github.com/chtimi59/getmaptiles/internal/pkg/config"
	"github.com/chtimi59/getmaptiles/internal/pkg/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:   "getmaptiles",
		Short: "Draw rectangle sets on a map and survey 3D tile coverage.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupWriter(os.Stderr, flagLogLevel, "text")
			c, err := config.Load("getmaptiles-cli")
			if err != nil {
				return err
			}
			cfg = c
			return nil
		},
		SilenceUsage: true,
	}
	cfg *config.Config

	flagLogLevel string
	flagOut      string
	flagFormat   string
	flagAPIKey   string
	flagLevel    int
	flagArea     string
	flagPoint    string
	flagScript   bool
	flagSetName  string
	flagImportAs string
	flagSource   string
	flagWorkers  int
	flagSave     bool
	flagOutDir   string
)

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "debug, info, warn or error")

	renderCmd := &cobra.Command{
		Use:   "render <file>...",
		Short: "render rectangle descriptor files as html, geojson or scene",
		Args:  cobra.MinimumNArgs(1),
		RunE:  renderCommand,
	}
	renderCmd.Flags().StringVarP(&flagFormat, "format", "f", usecases.FormatHTML, "output format")
	renderCmd.Flags().StringVarP(&flagOut, "out", "o", "", "output file (default stdout)")
	renderCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "Google Maps API key (default from config)")
	rootCmd.AddCommand(renderCmd)

	tilesCmd := &cobra.Command{
		Use:   "tiles <subcommand>",
		Short: "query the tile pyramid",
	}
	tilesCmd.PersistentFlags().IntVarP(&flagLevel, "level", "l", usecases.DefaultTileLevel, "tile level")
	tilesCmd.PersistentFlags().StringVarP(&flagOut, "out", "o", "", "output file (default stdout)")
	coverageCmd := &cobra.Command{
		Use:   "coverage",
		Short: "list the tiles covering an area",
		RunE:  coverageCommand,
	}
	coverageCmd.Flags().StringVar(&flagArea, "area", "", "lat0,lng0,lat1,lng1")
	coverageCmd.Flags().BoolVar(&flagScript, "script", false, "write window.DATA=... for a map page")
	_ = coverageCmd.MarkFlagRequired("area")
	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "list the tiles containing a point, root first",
		RunE:  traceCommand,
	}
	traceCmd.Flags().StringVar(&flagPoint, "point", "", "lat,lng")
	_ = traceCmd.MarkFlagRequired("point")
	tilesCmd.AddCommand(coverageCmd, traceCmd)
	rootCmd.AddCommand(tilesCmd)

	surveyCmd := &cobra.Command{
		Use:   "survey",
		Short: "fetch the tiles covering an area from the tile server",
		RunE:  surveyCommand,
	}
	surveyCmd.Flags().StringVar(&flagSetName, "name", "survey", "rectangle set name")
	surveyCmd.Flags().IntVarP(&flagLevel, "level", "l", usecases.DefaultTileLevel, "tile level")
	surveyCmd.Flags().StringVar(&flagArea, "area", "", "lat0,lng0,lat1,lng1")
	surveyCmd.Flags().StringVar(&flagSource, "source", "", "tile server root (default from config)")
	surveyCmd.Flags().IntVar(&flagWorkers, "workers", 8, "concurrent tile fetches")
	surveyCmd.Flags().BoolVar(&flagSave, "save", false, "store the result in the database")
	surveyCmd.Flags().StringVarP(&flagOut, "out", "o", "", "write window.DATA=... to this file")
	surveyCmd.Flags().StringVar(&flagOutDir, "out-dir", "", "write each fetched tile as <tile>.gltf plus its texture here")
	_ = surveyCmd.MarkFlagRequired("area")
	rootCmd.AddCommand(surveyCmd)

	importCmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "store rectangle descriptor files in the database",
		Args:  cobra.MinimumNArgs(1),
		RunE:  importCommand,
	}
	importCmd.Flags().StringVar(&flagImportAs, "name", "", "set name (default from the file)")
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
