// context.go holds the per-invocation wiring shared by the subcommands:
// repository discovery, config loading, and collaborator construction.
package cli

import (
	"os"
	"path/filepath"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/config"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/plan"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/vcs"
)

// runContext bundles the repository, its release config, and the git client
// every subcommand needs.
type runContext struct {
	// RepoRoot is the absolute path of the enclosing git repository.
	RepoRoot string

	// Config is the loaded release configuration.
	Config *config.Config

	// Git is the shared git client.
	Git *vcs.Client
}

// loadRunContext discovers the enclosing repository from the working
// directory, locates and loads the release config (honoring the --config
// override), and returns the assembled context.
func loadRunContext() (*runContext, error) {
	git := vcs.NewClient()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	repoRoot, err := git.RepoRoot(cwd)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitVCSError, "not inside a Git repository", err)
	}
	VerboseLog("Repository: %s", repoRoot)

	cfgPath := configPath
	if cfgPath == "" {
		cfgPath, err = config.Find(repoRoot)
		if err != nil {
			return nil, err
		}
	}
	VerboseLog("Release config: %s", cfgPath)

	cfg, err := config.Load(cfgPath, repoRoot)
	if err != nil {
		return nil, err
	}

	return &runContext{RepoRoot: repoRoot, Config: cfg, Git: git}, nil
}

// builder constructs a plan builder over this context.
func (rc *runContext) builder() *plan.Builder {
	return plan.NewBuilder(rc.RepoRoot, rc.Config, rc.Git)
}

// historyPath resolves the run-history database location.
func (rc *runContext) historyPath() string {
	return filepath.Join(rc.RepoRoot, rc.Config.HistoryDB)
}
