package cli

import (
	"os"

	"github.com/hybris-mobian/releng/internal/changelog"
	"github.com/hybris-mobian/releng/internal/models"
	"github.com/spf13/cobra"
)

// NewChangelogCmd creates the changelog command
func NewChangelogCmd(loadConfig configLoader) *cobra.Command {
	var (
		repoDir string
		output  string
		opts    changelog.Options
	)

	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Build debian/changelog from the git history",
		Long: `Generates a debian/changelog on the fly from the git history of the
repository. Release tags (<tag-prefix><release>/<version>) delimit the
entries; the top entry gets a snapshot version built from the nearest tag,
the commit date, the short commit hash and the comment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("tag-prefix") {
				opts.TagPrefix = cfg.Changelog.TagPrefix
			}
			if !cmd.Flags().Changed("branch-prefix") {
				opts.BranchPrefix = cfg.Changelog.BranchPrefix
			}
			if !cmd.Flags().Changed("comment") {
				opts.Comment = cfg.Changelog.Comment
			}

			b, err := changelog.Open(repoDir, opts)
			if err != nil {
				return &models.RelengError{Type: models.ErrChangelog, Subject: repoDir, Err: err}
			}
			if _, err := b.Write(output); err != nil {
				return &models.RelengError{Type: models.ErrChangelog, Subject: repoDir, Err: err}
			}
			return nil
		},
	}

	cwd, _ := os.Getwd()
	cmd.Flags().StringVar(&repoDir, "git-repository", cwd, "Git repository to read the history from")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default debian/changelog in the repository)")
	cmd.Flags().StringVar(&opts.Commit, "commit", "", "Commit to start from (default HEAD)")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "Tag specifying the base version of the package")
	cmd.Flags().StringVar(&opts.TagPrefix, "tag-prefix", "hybris-mobian/", "Prefix of release tags")
	cmd.Flags().StringVar(&opts.Branch, "branch", "", "Branch the commit is on (default current branch)")
	cmd.Flags().StringVar(&opts.BranchPrefix, "branch-prefix", "feature/", "Prefix of feature branches")
	cmd.Flags().StringVar(&opts.Comment, "comment", "release", "Comment appended to the version, slugified")

	return cmd
}
