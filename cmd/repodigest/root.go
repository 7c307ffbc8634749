package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"repodigest/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath string
	envFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "repodigest",
	Short: "Summarize a source repository with an LLM",
	Long: `repodigest reads a repository checkout, summarizes its files with an LLM,
clusters the summaries batch by batch and synthesizes a project-level report
of the domain, tech stack and core features.

Configuration comes from defaults, an optional YAML file (--config), a .env
file, environment variables and finally command flags.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("repodigest version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "Environment: development, staging or production")
}

// repoFlags are shared by commands that name a repository.
type repoFlags struct {
	root, owner, name, profile, userContext, commits string
}

func (f *repoFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.root, "root", "", "Repository checkout to analyze")
	fs.StringVar(&f.owner, "owner", "", "Repository owner")
	fs.StringVar(&f.name, "repo", "", "Repository name")
	fs.StringVar(&f.profile, "profile", "", "File selection profile: generic, spring, fastapi or django")
	fs.StringVar(&f.userContext, "user-context", "", "What the author says the project does")
	fs.StringVar(&f.commits, "commits", "", "Commit metadata JSON file")
}

func (f *repoFlags) apply(fs *pflag.FlagSet, repo *config.RepoConfig) {
	if fs.Changed("root") {
		repo.Root = f.root
	}
	if fs.Changed("owner") {
		repo.Owner = f.owner
	}
	if fs.Changed("repo") {
		repo.Name = f.name
	}
	if fs.Changed("profile") {
		repo.Profile = f.profile
	}
	if fs.Changed("user-context") {
		repo.UserContext = f.userContext
	}
	if fs.Changed("commits") {
		repo.CommitsFile = f.commits
	}
}

// loadConfig reads the configuration and applies the persistent flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if envFlag != "" {
		cfg.Env = envFlag
	}
	if cfg.OTel.ServiceVersion == "" || cfg.OTel.ServiceVersion == "dev" {
		cfg.OTel.ServiceVersion = version
	}
	return cfg, nil
}
