package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lojasmm/wabot/internal/sweeper"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Manage media uploaded to the WhatsApp Cloud API",
}

var mediaSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete orphaned uploads now",
	Long:  "Runs one sweep: uploads older than MEDIA_ORPHAN_AGE that no sent message referenced are deleted from the provider. Stop the server first, it holds the store lock.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp("cmd.media")
		if err != nil {
			return err
		}
		defer a.Close()

		sw, err := sweeper.New(a.db, a.client, sweeper.Config{
			Cron:      a.cfg.MediaSweepCron,
			OrphanAge: a.cfg.MediaOrphanAge,
		}, a.log)
		if err != nil {
			return err
		}
		res, err := sw.Sweep(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d, failed %d, pruned %d dedup ids\n", res.Deleted, res.Failed, res.Pruned)
		return nil
	},
}

var mediaDeleteCmd = &cobra.Command{
	Use:   "delete <media-id>...",
	Short: "Delete uploaded media by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("cmd.media")
		if err != nil {
			return err
		}
		defer a.Close()

		var failed int
		for _, id := range args {
			ok, err := a.client.DeleteMedia(cmd.Context(), id)
			switch {
			case err != nil:
				a.log.Error("delete failed", "media_id", id, "error", err)
				failed++
				continue
			case !ok:
				a.log.Warn("provider did not confirm delete", "media_id", id)
				failed++
				continue
			}
			if err := a.db.ReleaseUpload(id); err != nil {
				a.log.Warn("failed to release upload", "media_id", id, "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d deletes failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	mediaCmd.AddCommand(mediaSweepCmd, mediaDeleteCmd)
	rootCmd.AddCommand(mediaCmd)
}
