package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taintview/pkg/cache"
	"github.com/matzehuels/taintview/pkg/config"
)

var errRedisCache = errors.New("cache backend is redis; entries expire server side")

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the local cache",
	}
	cmd.AddCommand(
		c.cacheActionCommand("clear", "Remove every cached entry", func(fc *cache.FileCache) error {
			n, err := fc.Clear()
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared %d cached entries", n)
			return nil
		}),
		c.cacheActionCommand("prune", "Remove expired and unreadable entries", func(fc *cache.FileCache) error {
			n, err := fc.Prune()
			if err != nil {
				return fmt.Errorf("prune cache: %w", err)
			}
			printSuccess("Pruned %d entries", n)
			return nil
		}),
		c.cacheActionCommand("stats", "Show entry counts and disk usage", func(fc *cache.FileCache) error {
			st, err := fc.Stats()
			if err != nil {
				return fmt.Errorf("read cache: %w", err)
			}
			printKeyValue("Entries", strconv.Itoa(st.Entries))
			printKeyValue("Expired", strconv.Itoa(st.Expired))
			printKeyValue("Size", byteSize(st.Bytes))
			return nil
		}),
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				dir, err := c.Config.CacheDir()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
				return nil
			},
		},
	)
	return cmd
}

// cacheActionCommand runs fn against the file cache. A missing directory
// counts as an empty cache and fn is not called.
func (c *CLI) cacheActionCommand(use, short string, fn func(*cache.FileCache) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if c.Config.Cache.Backend == config.CacheRedis {
				printWarning("%v", errRedisCache)
				return nil
			}
			dir, err := c.Config.CacheDir()
			if err != nil {
				return err
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			if err := fn(fc); err != nil {
				return err
			}
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

func byteSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
