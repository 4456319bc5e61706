package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/avetrov/chorus/internal/formatter"
	"github.com/avetrov/chorus/internal/services"
	"github.com/avetrov/chorus/internal/shared"
	"github.com/urfave/cli/v3"
)

// ChartTracks fetches the top tracks chart and ingests it into the catalog.
func (r *Runner) ChartTracks(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	gateway, err := r.requireGateway(config)
	if err != nil {
		return err
	}

	db, _, engine, err := r.openCatalog(config)
	if err != nil {
		return err
	}
	defer db.Close()

	country := cmd.String("country")
	params := map[string]string{
		"country":      country,
		"page":         strconv.Itoa(int(cmd.Int("page"))),
		"page_size":    strconv.Itoa(int(cmd.Int("page-size"))),
		"f_has_lyrics": "1",
	}

	r.logger.Info("fetching top tracks", "country", country)

	payload, err := gateway.Request(ctx, services.TopTracks, params)
	if err != nil {
		return err
	}

	views, diags, err := engine.IngestTrackPayload(payload)
	if err != nil {
		return err
	}

	for _, diag := range diags {
		r.logger.Warn("skipped malformed record", "index", diag.Index, "error", diag.Err)
	}

	title := fmt.Sprintf("Top Tracks (%s)", country)
	return r.writeTracks(cmd, &formatter.TrackExport{Title: title, Tracks: views})
}

// ChartArtists fetches the top artists chart and ingests it into the catalog.
func (r *Runner) ChartArtists(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	gateway, err := r.requireGateway(config)
	if err != nil {
		return err
	}

	db, _, engine, err := r.openCatalog(config)
	if err != nil {
		return err
	}
	defer db.Close()

	country := cmd.String("country")
	params := map[string]string{
		"country":   country,
		"page":      strconv.Itoa(int(cmd.Int("page"))),
		"page_size": strconv.Itoa(int(cmd.Int("page-size"))),
	}

	r.logger.Info("fetching top artists", "country", country)

	payload, err := gateway.Request(ctx, services.TopArtists, params)
	if err != nil {
		return err
	}

	views, diags, err := engine.IngestArtistPayload(payload)
	if err != nil {
		return err
	}

	for _, diag := range diags {
		r.logger.Warn("skipped malformed record", "index", diag.Index, "error", diag.Err)
	}

	if cmd.String("format") == "json" {
		return r.writeJSON(views, cmd.Bool("pretty"))
	}

	r.writePlain("Top Artists (%s)\n\n", country)
	for i, artist := range views {
		r.writePlain("%d. %s\n", i+1, artist.Name)
	}
	return nil
}

// Search runs a provider track search and ingests the results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query argument is required", shared.ErrMissingArgument)
	}

	config := r.loadConfig(cmd)

	gateway, err := r.requireGateway(config)
	if err != nil {
		return err
	}

	db, _, engine, err := r.openCatalog(config)
	if err != nil {
		return err
	}
	defer db.Close()

	params := map[string]string{
		"q_track":        query,
		"page":           "1",
		"page_size":      strconv.Itoa(int(cmd.Int("page-size"))),
		"s_track_rating": "desc",
	}

	r.logger.Info("searching tracks", "query", query)

	payload, err := gateway.Request(ctx, services.TrackSearch, params)
	if err != nil {
		return err
	}

	views, diags, err := engine.IngestTrackPayload(payload)
	if err != nil {
		return err
	}

	for _, diag := range diags {
		r.logger.Warn("skipped malformed record", "index", diag.Index, "error", diag.Err)
	}

	title := fmt.Sprintf("Search Results for %q", query)
	return r.writeTracks(cmd, &formatter.TrackExport{Title: title, Tracks: views})
}

// writeTracks renders a track export in the format selected by the command's
// --format and --output flags.
func (r *Runner) writeTracks(cmd *cli.Command, export *formatter.TrackExport) error {
	format := cmd.String("format")
	output := cmd.String("output")

	if output != "" {
		var path string
		var err error

		switch format {
		case "csv":
			path, err = formatter.WriteCSVExport(export, output)
		case "md":
			path, err = formatter.WriteMarkdownExport(export, output)
		case "text":
			path, err = formatter.WriteTextExport(export, output)
		case "json":
			data, jsonErr := formatter.ToJSON(export)
			if jsonErr != nil {
				return jsonErr
			}
			path, err = output, os.WriteFile(output, data, 0644)
		default:
			return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
		}

		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d tracks to %s\n", len(export.Tracks), path)
	}

	switch format {
	case "json":
		return r.writeJSON(export.Tracks, cmd.Bool("pretty"))
	case "csv":
		data, err := formatter.ExportToCSV(export)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	case "md":
		data, err := formatter.ExportToMarkdown(export)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	case "text":
		data, err := formatter.ExportToText(export)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}
