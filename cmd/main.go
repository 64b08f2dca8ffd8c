package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"busmap.dev/busmap"
	"busmap.dev/busmap/config"
	"busmap.dev/busmap/downloader"
	"busmap.dev/busmap/parse"
	"busmap.dev/busmap/storage"
)

var rootCmd = &cobra.Command{
	Use:          "busmap",
	Short:        "Bus network map tool",
	Long:         "Derives a renderable route network and journey plans from a static transit feed",
	SilenceUsage: true,
}

var (
	gtfsPath       string
	feedURL        string
	storageBackend string
	dbDir          string
	postgresConn   string
	configPath     string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&gtfsPath, "gtfs", "", "", "Path to a feed zip or a directory of feed .txt files")
	rootCmd.PersistentFlags().StringVarP(&feedURL, "url", "", "", "URL of a feed zip")
	rootCmd.PersistentFlags().StringVarP(&storageBackend, "storage", "", "memory", "Storage backend: memory, sqlite or postgres")
	rootCmd.PersistentFlags().StringVarP(&dbDir, "db-dir", "", "", "Directory for on-disk storage and the download cache")
	rootCmd.PersistentFlags().StringVarP(&postgresConn, "postgres", "", "", "Postgres connection string")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "", "", "Path to a YAML tunables file")

	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(placesCmd)
	rootCmd.AddCommand(nearbyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadOptions() (busmap.Options, error) {
	return config.Load(configPath)
}

func buildStorage() (storage.Storage, error) {
	switch storageBackend {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		return storage.NewSQLiteStorage(storage.SQLiteConfig{
			OnDisk:    dbDir != "",
			Directory: dbDir,
		})
	case "postgres":
		if postgresConn == "" {
			return nil, fmt.Errorf("--postgres is required with the postgres backend")
		}
		return storage.NewPSQLStorage(postgresConn, false)
	}
	return nil, fmt.Errorf("unknown storage backend %q", storageBackend)
}

// loadSnapshot parses the feed named by --gtfs or --url into storage
// and reads it back.
func loadSnapshot(ctx context.Context) (*busmap.Snapshot, error) {
	s, err := buildStorage()
	if err != nil {
		return nil, err
	}

	var feedID string
	var metadata *storage.FeedMetadata

	switch {
	case gtfsPath != "":
		feedID = "cli"
		writer, err := s.GetWriter(feedID)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(gtfsPath)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			slog.Info("loading feed directory", "path", gtfsPath)
			metadata, err = parse.ParseDir(writer, gtfsPath)
		} else {
			slog.Info("loading feed zip", "path", gtfsPath)
			var buf []byte
			buf, err = os.ReadFile(gtfsPath)
			if err != nil {
				return nil, err
			}
			metadata, err = parse.ParseStatic(writer, buf)
		}
		if err != nil {
			return nil, err
		}

	case feedURL != "":
		buf, err := fetchFeed(ctx)
		if err != nil {
			return nil, err
		}

		hash := sha256.Sum256(buf)
		feedID = hex.EncodeToString(hash[:])

		writer, err := s.GetWriter(feedID)
		if err != nil {
			return nil, err
		}
		metadata, err = parse.ParseStatic(writer, buf)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("either --gtfs or --url is required")
	}

	metadata.Hash = feedID
	metadata.URL = feedURL
	metadata.RetrievedAt = time.Now().UTC()
	if err := s.WriteFeedMetadata(metadata); err != nil {
		return nil, err
	}

	slog.Info("feed loaded",
		"stops", metadata.Stops,
		"routes", metadata.Routes,
		"trips", metadata.Trips,
		"stop_times", metadata.StopTimes)

	reader, err := s.GetReader(feedID)
	if err != nil {
		return nil, err
	}

	return busmap.NewSnapshot(reader)
}

func fetchFeed(ctx context.Context) ([]byte, error) {
	var dl downloader.Downloader = &downloader.HTTP{
		Timeout: 60 * time.Second,
	}

	if dbDir != "" {
		cached, err := downloader.NewFileCache(dl, dbDir+"/downloads.json", 24*time.Hour)
		if err != nil {
			return nil, err
		}
		dl = cached
	}

	slog.Info("downloading feed", "url", feedURL)
	return dl.Fetch(ctx, feedURL)
}

func printJSON(v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}
