package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Conceptual-Machines/vibify-api/internal/models"
	"github.com/Conceptual-Machines/vibify-api/internal/vectorstore"
)

const defaultListLimit = 50

func newSongsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "songs",
		Short: "Inspect and manage the similarity store",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recently stored songs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(v, func(store vectorstore.Store) error {
				songs, err := store.List(cmd.Context(), v.GetInt("limit"))
				if err != nil {
					return err
				}
				return printSongTable(cmd.OutOrStdout(), songs)
			})
		},
	}
	list.Flags().Int("limit", defaultListLimit, "maximum number of songs")

	get := &cobra.Command{
		Use:   "get <song name>",
		Short: "Show the newest stored analysis of a song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(v, func(store vectorstore.Store) error {
				song, err := store.GetBySongName(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(song)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <song name>",
		Short: "Delete every stored analysis of a song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(v, func(store vectorstore.Store) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted %s\n", args[0])
				return nil
			})
		},
	}

	byTempo := &cobra.Command{
		Use:   "by-tempo",
		Short: "List stored songs whose tempo lies in [min, max] BPM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			minTempo, maxTempo := v.GetFloat64("min"), v.GetFloat64("max")
			if minTempo > maxTempo {
				return fmt.Errorf("--min (%.1f) must not exceed --max (%.1f)", minTempo, maxTempo)
			}
			return withStore(v, func(store vectorstore.Store) error {
				songs, err := store.FindByTempo(cmd.Context(), minTempo, maxTempo, v.GetInt("limit"))
				if err != nil {
					return err
				}
				return printSongTable(cmd.OutOrStdout(), songs)
			})
		},
	}
	byTempo.Flags().Float64("min", 0, "minimum tempo in BPM")
	byTempo.Flags().Float64("max", 0, "maximum tempo in BPM")
	byTempo.Flags().Int("limit", 10, "maximum number of songs")
	_ = byTempo.MarkFlagRequired("min")
	_ = byTempo.MarkFlagRequired("max")

	cmd.AddCommand(list, get, del, byTempo)
	return cmd
}

// withStore opens the configured store for the duration of fn
func withStore(v *viper.Viper, fn func(vectorstore.Store) error) error {
	cfg := resolveConfig(v)
	store, err := vectorstore.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if !vectorstore.Enabled(store) {
		return fmt.Errorf("%w: set STORE_DSN or --store-dsn", vectorstore.ErrStoreDisabled)
	}
	return fn(store)
}

func printSongTable(out io.Writer, songs []models.SongAnalysis) error {
	if len(songs) == 0 {
		_, err := fmt.Fprintln(out, "📭 No songs found")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SONG\tTEMPO\tNOTES\tDURATION\tSTORED")
	for _, s := range songs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.SongName,
			formatOptional(s.Tempo, "%.0f"),
			formatOptional(s.NoteCount, "%d"),
			formatOptional(s.SongDuration, "%.1fs"),
			s.Timestamp.Local().Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func formatOptional[T any](v *T, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}
