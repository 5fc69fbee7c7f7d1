package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aitool/sleuth/internal/upload"
)

func newUploadCommand(r *root) *cobra.Command {
	var urls []string
	cmd := &cobra.Command{
		Use:   "upload [paths or patterns...]",
		Short: "Upload log archives or have the backend fetch remote URLs",
		Long: `Upload each matching local file with its own request. Patterns
support ** (e.g. "logs/**/*.zip"). Arguments that look like http(s)
URLs are submitted as remote uploads.

Examples:
  sleuth upload bugreport.zip
  sleuth upload "captures/**/*.log"
  sleuth upload --url https://example.com/logs/device.zip`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patterns []string
			remotes := append([]string(nil), urls...)
			for _, arg := range args {
				if upload.IsRemote(arg) {
					remotes = append(remotes, arg)
				} else {
					patterns = append(patterns, arg)
				}
			}
			if len(patterns) == 0 && len(remotes) == 0 {
				return fmt.Errorf("nothing to upload: pass a path, a pattern or --url")
			}
			paths, err := expandPatterns(patterns)
			if err != nil {
				return err
			}
			svc, err := r.services()
			if err != nil {
				return err
			}
			return runUploads(cmd, svc.Uploader, paths, remotes)
		},
	}
	cmd.Flags().StringSliceVar(&urls, "url", nil, "remote http(s) URL for the backend to fetch (repeatable)")
	return cmd
}

// expandPatterns resolves glob patterns to a sorted, de-duplicated list of
// files. A pattern matching nothing is an error.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, m := range matches {
			clean := filepath.Clean(m)
			if !seen[clean] {
				seen[clean] = true
				paths = append(paths, clean)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func runUploads(cmd *cobra.Command, u *upload.Uploader, paths, remotes []string) error {
	out, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	failed := 0

	for _, path := range paths {
		res, err := u.UploadFile(cmd.Context(), path, nil)
		if err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %s\n", path, upload.Describe(err))
			continue
		}
		fmt.Fprintf(out, "uploaded %s (%s) id=%s\n", res.Filename, upload.HumanBytes(res.Size), res.ID)
	}
	for _, raw := range remotes {
		res, err := u.UploadURL(cmd.Context(), raw)
		if err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %s\n", raw, upload.Describe(err))
			continue
		}
		fmt.Fprintf(out, "accepted %s id=%s\n", res.SourceURL, res.ID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(paths)+len(remotes))
	}
	return nil
}
