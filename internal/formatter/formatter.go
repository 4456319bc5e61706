// package formatter provides functions to export catalog data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/avetrov/chorus/internal/models"
	"github.com/avetrov/chorus/internal/shared"
)

// TrackExport bundles a titled set of track views for export, such as a chart
// page or a search result.
type TrackExport struct {
	Title  string
	Tracks []models.TrackView
}

// ExportToCSV converts a TrackExport to CSV format with columns: ID, Name, Artist, Album, Genres
func ExportToCSV(export *TrackExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artist", "Album", "Genres"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			strconv.FormatInt(track.ID, 10),
			track.Name,
			entityName(track.Artist),
			entityName(track.Album),
			genreNames(track.Genres),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a TrackExport to Markdown format
func ExportToMarkdown(export *TrackExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(export.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		albumPart := ""
		if track.Album != nil {
			albumPart = fmt.Sprintf(" (%s)", track.Album.Name)
		}
		genrePart := ""
		if len(track.Genres) > 0 {
			genrePart = fmt.Sprintf(" [%s]", genreNames(track.Genres))
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s%s\n", i+1, entityName(track.Artist), track.Name, albumPart, genrePart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a TrackExport to plain text format
func ExportToText(export *TrackExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", export.Title))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, entityName(track.Artist), track.Name))
	}

	return buf.Bytes(), nil
}

// ToJSON generates an indented JSON representation of the export's tracks
func ToJSON(export *TrackExport) ([]byte, error) {
	return shared.MarshalJSON(export.Tracks, true)
}

// WriteCSVExport exports tracks to a CSV file.
//
// Defaults to {title}_tracks.csv (lowercased, spaces replaced) as the filename.
func WriteCSVExport(export *TrackExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = defaultFilename(export.Title, "tracks.csv")
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(filepath, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filepath, nil
}

// WriteMarkdownExport exports tracks to a Markdown file.
//
// Defaults to {title}_tracks.md as the filename.
func WriteMarkdownExport(export *TrackExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = defaultFilename(export.Title, "tracks.md")
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(filepath, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filepath, nil
}

// WriteTextExport exports tracks to a plain text file.
//
// Defaults to {title}_tracks.txt as the filename.
func WriteTextExport(export *TrackExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = defaultFilename(export.Title, "tracks.txt")
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

func entityName(entity *models.EntityView) string {
	if entity == nil {
		return ""
	}
	return entity.Name
}

func genreNames(genres []models.EntityView) string {
	names := make([]string, len(genres))
	for i, genre := range genres {
		names[i] = genre.Name
	}
	return strings.Join(names, "; ")
}

func defaultFilename(title, suffix string) string {
	base := strings.ToLower(strings.ReplaceAll(title, " ", "_"))
	if base == "" {
		base = "export"
	}
	return fmt.Sprintf("%s_%s", base, suffix)
}
