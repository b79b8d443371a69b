package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/himanishpuri/fpstore/pkg/logger"
	"github.com/himanishpuri/fpstore/pkg/models"
	"github.com/himanishpuri/fpstore/pkg/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the schema and purge unfinished songs",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Fingerprint store ready at %s\n", dbPath)
			return nil
		},
	}
}

type ingestResult struct {
	file   string
	name   string
	songID uint
	hashes int
}

func newIngestCmd() *cobra.Command {
	var (
		name string
		jobs int
	)
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest songs from files of \"hash,offset\" lines",
		Long: `Each file holds one song. The song name defaults to the file name
without its extension. Use "-" to read a single song from stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) > 1 {
				return errors.New("--name can only be used with a single file")
			}
			if stdinArgs(args) > 1 {
				return errors.New("stdin (\"-\") can only be read once")
			}
			log := logger.GetLogger()

			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			results := make([]ingestResult, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)
			for i, file := range args {
				g.Go(func() error {
					songName := name
					if songName == "" {
						songName = songNameFromPath(file)
					}
					pairs, err := readPairsFile(file, cmd.InOrStdin())
					if err != nil {
						return err
					}
					songID, err := svc.IngestSong(ctx, songName, pairs)
					if err != nil {
						return fmt.Errorf("%s: %w", file, err)
					}
					log.Debugf("ingested %s as song %d", file, songID)
					results[i] = ingestResult{file: file, name: songName, songID: songID, hashes: len(pairs)}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				fmt.Fprintf(out, "✅ %s -> song %d %q (%s hashes)\n", r.file, r.songID, r.name, humanize.Comma(int64(r.hashes)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Song name (single file only)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Files ingested in parallel")
	return cmd
}

func stdinArgs(args []string) int {
	n := 0
	for _, a := range args {
		if a == "-" {
			n++
		}
	}
	return n
}

func songNameFromPath(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type songSummary struct {
	SongID  uint   `json:"song_id"`
	Name    string `json:"name"`
	Matches int    `json:"matches"`
}

func newMatchCmd() *cobra.Command {
	var (
		limit   int
		asJSON  bool
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "match <file>",
		Short: "Resolve query hashes into (song, offset delta) matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := readPairsFile(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			ctx := cmd.Context()
			matches, err := svc.MatchHashes(ctx, pairs)
			if err != nil {
				return fmt.Errorf("failed to resolve matches: %w", err)
			}

			summaries := summarize(matches)
			for i := range summaries {
				if song, err := svc.GetSongByID(ctx, summaries[i].SongID); err == nil {
					summaries[i].Name = song.Name
				}
			}
			if limit > 0 && len(summaries) > limit {
				summaries = summaries[:limit]
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				payload := map[string]any{"query_hashes": len(pairs), "songs": summaries}
				if verbose {
					payload["matches"] = matches
				}
				return enc.Encode(payload)
			}

			if len(matches) == 0 {
				fmt.Fprintln(out, "❌ No matches found in database")
				return nil
			}
			fmt.Fprintf(out, "Resolved %s query hashes into %s matches\n\n",
				humanize.Comma(int64(len(pairs))), humanize.Comma(int64(len(matches))))
			for i, s := range summaries {
				fmt.Fprintf(out, "%d. %q (ID: %d) - %s matches\n", i+1, s.Name, s.SongID, humanize.Comma(int64(s.Matches)))
			}
			if verbose {
				fmt.Fprintln(out)
				for _, m := range matches {
					fmt.Fprintf(out, "%d\t%d\n", m.SongID, m.OffsetDelta)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Songs to show (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print every (song_id, delta) match")
	return cmd
}

// summarize counts matches per song, most matched first.
func summarize(matches []models.Match) []songSummary {
	counts := make(map[uint]int)
	for _, m := range matches {
		counts[m.SongID]++
	}
	out := make([]songSummary, 0, len(counts))
	for id, n := range counts {
		out = append(out, songSummary{SongID: id, Matches: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Matches != out[j].Matches {
			return out[i].Matches > out[j].Matches
		}
		return out[i].SongID < out[j].SongID
	})
	return out
}

func newSongsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "songs",
		Aliases: []string{"list"},
		Short:   "List fingerprinted songs",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			ctx := cmd.Context()
			songs, err := svc.ListSongs(ctx)
			if err != nil {
				return fmt.Errorf("failed to list songs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(songs) == 0 {
				fmt.Fprintln(out, "📭 No songs in database")
				return nil
			}
			fmt.Fprintf(out, "📚 Found %d song(s):\n\n", len(songs))
			for i, song := range songs {
				n, err := svc.CountFingerprintsForSong(ctx, song.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d. %q (ID: %d)\n", i+1, song.Name, song.ID)
				fmt.Fprintf(out, "   Fingerprints: %s | Added: %s\n", humanize.Comma(n), humanize.Time(song.CreatedAt))
			}
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <song_id>",
		Short: "Delete a song and its fingerprints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			songID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid song ID: %w", err)
			}

			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			ctx := cmd.Context()
			song, err := svc.GetSongByID(ctx, uint(songID))
			if err != nil {
				return err
			}
			if err := svc.DeleteSong(ctx, song.ID); err != nil {
				return fmt.Errorf("failed to delete song: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Deleted song %d %q\n", song.ID, song.Name)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show song, fingerprint and connection pool counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			stats, err := svc.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(stats)
			}
			fmt.Fprintf(out, "Database:     %s", dbPath)
			if info, err := os.Stat(dbPath); err == nil {
				fmt.Fprintf(out, " (%s)", humanize.Bytes(uint64(info.Size())))
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Songs:        %s\n", humanize.Comma(stats.Songs))
			fmt.Fprintf(out, "Fingerprints: %s\n", humanize.Comma(stats.Fingerprints))
			fmt.Fprintf(out, "Pool:         %d/%d idle, %d opened, %d reused, %d probe failures\n",
				stats.Pool.Idle, stats.Pool.Capacity, stats.Pool.Opened, stats.Pool.Reused, stats.Pool.ProbeFailures)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove songs whose ingestion never finished",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			n, err := svc.PurgeUnfingerprinted(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🧹 Purged %d unfingerprinted song(s)\n", n)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var level string
	cmd := &cobra.Command{
		Use:   "export <file.zst>",
		Short: "Write every fingerprint as zstd-compressed \"hash,song_id,offset\" lines",
		Long:  `Use "-" to write to stdout.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := parseLevel(level)
			if err != nil {
				return err
			}

			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			if args[0] == "-" {
				_, err := exportFingerprints(cmd.Context(), svc, cmd.OutOrStdout(), lvl)
				return err
			}

			if err := utils.EnsureParentDir(args[0]); err != nil {
				return err
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			n, err := exportFingerprints(cmd.Context(), svc, f, lvl)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				if rmErr := utils.DeleteFile(args[0]); rmErr != nil {
					logger.GetLogger().Warnf("could not remove partial export: %v", rmErr)
				}
				return fmt.Errorf("export failed: %w", err)
			}

			size := "?"
			if info, err := os.Stat(args[0]); err == nil {
				size = humanize.Bytes(uint64(info.Size()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Exported %s fingerprints to %s (%s)\n", humanize.Comma(n), args[0], size)
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", "default", "Compression level (fastest, default, better, best)")
	return cmd
}

func newEmptyCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "empty",
		Short: "Drop every song and fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to empty the database without --yes")
			}
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			if err := svc.Empty(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "🗑️  Database emptied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm")
	return cmd
}
