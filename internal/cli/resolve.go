package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"opam-resolve/internal/adapters"
	"opam-resolve/internal/app"
)

type resolveOptions struct {
	Repo     string
	Requires []string
	Vars     []string
	Output   string
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a set of opam package constraints against a repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Repo, "repo", "", "Repository root (repo_path/<name>/<name>.<version>/opam.json)")
	cmd.Flags().StringArrayVar(&opts.Requires, "require", nil, "Root constraint, name:range (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "Variable binding, name=value (repeatable)")
	cmd.Flags().StringVar(&opts.Output, "out", "yaml", "Output format: yaml or json")

	_ = viper.BindPFlag("repo", cmd.Flags().Lookup("repo"))
	_ = viper.BindPFlag("require", cmd.Flags().Lookup("require"))
	_ = viper.BindPFlag("var", cmd.Flags().Lookup("var"))
	_ = viper.BindPFlag("out", cmd.Flags().Lookup("out"))

	return cmd
}

func runResolve(ctx context.Context, opts resolveOptions) error {
	repo := opts.Repo
	if repo == "" {
		repo = viper.GetString("repo")
	}
	requires := opts.Requires
	if len(requires) == 0 {
		requires = viper.GetStringSlice("require")
	}
	rawVars := opts.Vars
	if len(rawVars) == 0 {
		rawVars = viper.GetStringSlice("var")
	}
	output := opts.Output
	if v := viper.GetString("out"); v != "" && opts.Output == "yaml" {
		output = v
	}

	vars, err := parseVarFlags(rawVars)
	if err != nil {
		return err
	}

	service := app.NewService(adapters.NewRepoFSAdapter())
	result, err := service.Resolve(ctx, app.ResolveRequest{
		RepoPath: repo,
		Requires: requires,
		Vars:     vars,
	})
	if err != nil {
		return err
	}

	if result.Conflict != "" {
		fmt.Println(result.Conflict)
		return nil
	}
	return printResolveResult(result, output)
}

func parseVarFlags(raw []string) (map[string]string, error) {
	vars := make(map[string]string, len(raw))
	for _, entry := range raw {
		name, value, found := cutEquals(entry)
		if !found {
			return nil, fmt.Errorf("--var needs name=value, got %q", entry)
		}
		vars[name] = value
	}
	return vars, nil
}

func cutEquals(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func printResolveResult(result app.ResolveResult, format string) error {
	payload := struct {
		Packages map[string]string `json:"packages" yaml:"packages"`
		Vars     map[string]string `json:"vars,omitempty" yaml:"vars,omitempty"`
	}{Packages: result.Solution, Vars: result.Vars}

	switch format {
	case "json":
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	default:
		data, err := yaml.Marshal(payload)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	}
	return nil
}
