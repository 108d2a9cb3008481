package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/spotlight/internal/cache"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the clip cache",
		Long:  paragraph(fmt.Sprintf("\nGenerated word clips are kept on disk so %s.", keyword("pages you read again start instantly"))),
		Args:  cobra.NoArgs,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show clip cache usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			dir, _ := clipCacheDir()
			s := store.TieredStats()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", keyword("Directory:"), dir)
			if !s.HasDisk {
				fmt.Fprintln(w, "The disk cache is disabled.")
				return nil
			}
			fmt.Fprintf(w, "%s %s words\n", keyword("Clips:"), humanize.Comma(s.Disk.ItemCount))
			fmt.Fprintf(w, "%s %s of %s\n", keyword("Size:"),
				humanize.IBytes(uint64(s.Disk.Size)), humanize.IBytes(uint64(s.Disk.Capacity))) //nolint:gosec
			fmt.Fprintf(w, "%s %s\n", keyword("Last used:"), lastUsed(s.Disk.LastAccess))
			return nil
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached clip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			before := store.Size()
			if err := store.Clear(); err != nil {
				return fmt.Errorf("unable to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Freed %s.\n", humanize.IBytes(uint64(before))) //nolint:gosec
			return nil
		},
	}
)

func lastUsed(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// clipCacheDir returns the configured clip directory, defaulting to the
// user cache dir.
func clipCacheDir() (string, error) {
	if dir := viper.GetString("cache.dir"); dir != "" {
		return expandPath(dir)
	}
	dir, err := gap.NewScope(gap.User, "spotlight").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "clips"), nil
}

// openStore opens the persistent clip store described by the config.
func openStore() (*cache.Tiered, error) {
	dir, err := clipCacheDir()
	if err != nil {
		return nil, err
	}
	const mb = 1024 * 1024
	cfg := cache.Config{
		MemoryCapacity:   viper.GetInt64("cache.memory_mb") * mb,
		DiskCapacity:     viper.GetInt64("cache.disk_mb") * mb,
		DiskPath:         dir,
		CompressionLevel: viper.GetInt("cache.compression_level"),
		TTL:              viper.GetDuration("cache.ttl"),
	}
	store, err := cache.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to open clip cache: %w", err)
	}
	return store, nil
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}
