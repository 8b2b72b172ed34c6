package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"wsfetch/internal"
	"wsfetch/utils"
	"wsfetch/webshare"
)

func newLinkCmd(opts *options) *cobra.Command {
	linkCmd := &cobra.Command{
		Use:   "link <URL>...",
		Short: "Print the direct download link of one or more share links",
		Long: `Resolve share links into direct download links, printed one per line
in the order given. A stored session is used when one exists.

Examples:
  wsfetch link https://webshare.cz/#/file/abc123/movie.mkv
  wsfetch link --file-password secret https://webshare.cz/file/abc123`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}
			if err := opts.restoreSession(client); err != nil {
				return err
			}

			tracker := utils.NewProgressTracker(len(args), opts.config.QuietMode, cmd.ErrOrStderr())
			links, err := client.ResolveLinks(cmd.Context(), args, opts.filePasswordFlag(cmd),
				webshare.WithResolvedHook(func(internal.ResolvedLink) { tracker.Increment() }))
			summary := tracker.Finish()
			if err != nil {
				return reportError(err)
			}
			internal.LogInfo("%s", summary)

			if opts.jsonOutput {
				return writeJSON(cmd, links)
			}
			for _, link := range links {
				fmt.Fprintln(cmd.OutOrStdout(), link.DirectURL)
			}
			return nil
		},
	}

	linkCmd.Flags().StringVar(&opts.filePassword, "file-password", "", "Password of a protected file")
	linkCmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")
	return linkCmd
}

func newInfoCmd(opts *options) *cobra.Command {
	infoCmd := &cobra.Command{
		Use:   "info <URL>",
		Short: "Show the metadata of a shared file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}
			if err := opts.restoreSession(client); err != nil {
				return err
			}

			info, err := client.ResolveInfo(cmd.Context(), args[0], opts.filePasswordFlag(cmd))
			if err != nil {
				return reportError(err)
			}

			if opts.jsonOutput {
				return writeJSON(cmd, info)
			}
			printInfo(cmd, info)
			return nil
		},
	}

	infoCmd.Flags().StringVar(&opts.filePassword, "file-password", "", "Password of a protected file")
	infoCmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")
	return infoCmd
}

func printInfo(cmd *cobra.Command, info *internal.FileInfo) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:        %s\n", info.Name)
	fmt.Fprintf(out, "Size:        %s (%d bytes)\n", formatFileSize(info.Size), info.Size)
	if info.Type != "" {
		fmt.Fprintf(out, "Type:        %s\n", info.Type)
	}
	if info.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", info.Description)
	}
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatFileSize formats a file size in bytes to a human-readable string
func formatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
