package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/tmplcheck/internal/backup"
	"github.com/smykla-skalski/tmplcheck/internal/report"
)

// ErrBackupsDisabled is returned by backup commands when backups are off.
var ErrBackupsDisabled = errors.New("backups are disabled (backup.enabled = false)")

var (
	backupJSON   bool
	backupDryRun bool
	backupForce  bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage config snapshots",
	Long: `Manage snapshots taken before the config is overwritten.

Subcommands:
  list     List snapshots of the config, newest first
  restore  Restore a snapshot over the config
  prune    Remove snapshots beyond backup.max_snapshots`,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots of the config",
	Args:  cobra.NoArgs,
	RunE:  runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore N",
	Short: "Restore snapshot N from the list (1 is the newest)",
	Long: `Restore a snapshot over the config.

The current config is snapshotted first unless --force is given.

Examples:
  tmplcheck backup restore 1             # Restore the newest snapshot
  tmplcheck backup restore 2 --dry-run   # Show what would be restored`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupRestore,
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old snapshots",
	Args:  cobra.NoArgs,
	RunE:  runBackupPrune,
}

func init() {
	backupListCmd.Flags().BoolVar(&backupJSON, "json", false, "Output as JSON")
	backupRestoreCmd.Flags().BoolVar(&backupDryRun, "dry-run", false, "Show what would be restored")
	backupRestoreCmd.Flags().BoolVar(&backupForce, "force", false, "Skip the safety snapshot")

	backupCmd.AddCommand(backupListCmd, backupRestoreCmd, backupPruneCmd)
	rootCmd.AddCommand(backupCmd)
}

func setupBackups(cmd *cobra.Command) (*app, *backup.Manager, error) {
	a, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}

	mgr, err := newBackups(a)
	if err != nil {
		_ = a.log.Close()

		return nil, nil, err
	}

	if mgr == nil {
		_ = a.log.Close()

		return nil, nil, ErrBackupsDisabled
	}

	return a, mgr, nil
}

type snapshotJSON struct {
	Index     int       `json:"index"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
}

func runBackupList(cmd *cobra.Command, _ []string) error {
	a, mgr, err := setupBackups(cmd)
	if err != nil {
		return err
	}
	defer a.log.Close()

	snaps, err := mgr.List(a.settings.Config)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if backupJSON {
		entries := make([]snapshotJSON, len(snaps))
		for i, s := range snaps {
			entries[i] = snapshotJSON{
				Index:     i + 1,
				Path:      s.Path,
				Timestamp: s.Timestamp,
				Size:      s.Size,
				Checksum:  s.Checksum,
			}
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		return errors.Wrap(enc.Encode(entries), "encoding snapshots")
	}

	if len(snaps) == 0 {
		fmt.Fprintf(out, "No snapshots of %s in %s\n", a.settings.Config, mgr.Dir())

		return nil
	}

	now := time.Now()
	rows := make([]report.Row, len(snaps))

	for i, s := range snaps {
		rows[i] = report.Row{
			Status: report.StatusPass,
			Name:   strconv.Itoa(i + 1),
			Message: fmt.Sprintf("%s  %s  %s",
				s.Timestamp.Local().Format("2006-01-02 15:04:05"), s.HumanSize(), s.Age(now)),
		}
	}

	fmt.Fprintln(out, report.RenderTable(rows, "#", a.theme))

	return nil
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil || index < 1 {
		return errors.Newf("invalid snapshot number %q", args[0])
	}

	a, mgr, err := setupBackups(cmd)
	if err != nil {
		return err
	}
	defer a.log.Close()

	snaps, err := mgr.List(a.settings.Config)
	if err != nil {
		return err
	}

	if index > len(snaps) {
		return errors.Wrapf(backup.ErrSnapshotNotFound, "#%d (have %d)", index, len(snaps))
	}

	snap := snaps[index-1]
	out := cmd.OutOrStdout()

	if backupDryRun {
		fmt.Fprintf(out, "Would restore %s (%s) over %s\n", snap.Path, snap.HumanSize(), a.settings.Config)

		return nil
	}

	if backupForce {
		err = mgr.Restore(snap, a.settings.Config)
	} else {
		_, err = mgr.RestoreWithBackup(snap, a.settings.Config)
	}

	if err != nil {
		return errors.Wrap(err, "failed to restore snapshot")
	}

	a.log.Info("snapshot restored", "snapshot", snap.Path, "target", a.settings.Config)
	fmt.Fprintln(out, a.theme.Pass.Render(fmt.Sprintf("Restored %s from %s", a.settings.Config, snap.Path)))

	return nil
}

func runBackupPrune(cmd *cobra.Command, _ []string) error {
	a, mgr, err := setupBackups(cmd)
	if err != nil {
		return err
	}
	defer a.log.Close()

	removed, err := mgr.Prune(a.settings.Config)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d snapshot(s)\n", len(removed))

	return nil
}
