package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cinira-llc/crypto-go/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage encryption profiles",
	Long: `Manage key-wrapping profiles.

A profile names a PBES2 policy: the PBKDF2 iteration count (the price
of one passphrase guess) and the cipher. Built-in profiles cover the
common cases; custom YAML profiles in a directory override them by name.

Examples:
  # List all available profiles
  cryptoctl profile list

  # Show a profile as YAML
  cryptoctl profile show modern

  # Lint a custom profile file
  cryptoctl profile lint my-profile.yaml

  # Export the built-ins for customization
  cryptoctl profile export ./profiles/`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available profiles",
	Long: `List all available profiles.

Shows built-in profiles and custom profiles from --profile-dir.`,
	RunE: runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show profile YAML content",
	Long: `Display a profile as YAML.

This is useful for exporting a single profile via shell redirection:
  cryptoctl profile show modern > my-profile.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileShow,
}

var profileLintCmd = &cobra.Command{
	Use:   "lint <file>",
	Short: "Lint a profile YAML file",
	Long:  `Lint a profile YAML file for correctness.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileLint,
}

var profileExportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Export built-in profiles to a directory",
	Long: `Export the built-in profiles as YAML files for customization.

Edited copies placed in a profile directory override the built-ins
by name.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileExport,
}

var profileDir string

func init() {
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileLintCmd)
	profileCmd.AddCommand(profileExportCmd)

	profileListCmd.Flags().StringVarP(&profileDir, "profile-dir", "d", "", "Directory with custom profiles")
	profileShowCmd.Flags().StringVarP(&profileDir, "profile-dir", "d", "", "Directory with custom profiles")
}

func runProfileList(cmd *cobra.Command, args []string) error {
	builtins, err := profile.BuiltinProfiles()
	if err != nil {
		return fmt.Errorf("failed to load built-in profiles: %w", err)
	}
	custom, err := profile.LoadProfilesFromDirectory(profileDir)
	if err != nil {
		return fmt.Errorf("failed to load custom profiles: %w", err)
	}

	store := profile.NewProfileStore(profileDir)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tITERATIONS\tCIPHER\tSOURCE\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t----------\t------\t------\t-----------")

	for _, name := range store.List() {
		p, _ := store.Get(name)
		_, isBuiltin := builtins[name]
		_, isCustom := custom[name]

		source := "built-in"
		switch {
		case isBuiltin && isCustom:
			source = "custom (overrides built-in)"
		case isCustom:
			source = "custom"
		}

		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			p.Name,
			p.KDF.Iterations,
			p.Cipher,
			source,
			p.Description)
	}

	_ = w.Flush()
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	name := args[0]

	store := profile.NewProfileStore(profileDir)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	prof, ok := store.Get(name)
	if !ok {
		return fmt.Errorf("profile not found: %s", name)
	}

	data, err := yaml.Marshal(prof)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	fmt.Print(string(data))
	return nil
}

func runProfileLint(cmd *cobra.Command, args []string) error {
	path := args[0]

	prof, err := profile.LoadProfileFromFile(path)
	if err != nil {
		fmt.Printf("INVALID: %s\n", err)
		return err
	}

	fmt.Printf("VALID: %s\n", prof.Name)
	fmt.Printf("  %d PBKDF2 iterations, %s\n", prof.KDF.Iterations, prof.Cipher)
	return nil
}

func runProfileExport(cmd *cobra.Command, args []string) error {
	destDir := args[0]

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	builtins, err := profile.BuiltinProfiles()
	if err != nil {
		return fmt.Errorf("failed to load built-in profiles: %w", err)
	}

	// Sort names for consistent output
	var names []string
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Exporting %d profiles to %s/\n", len(builtins), destDir)

	for _, name := range names {
		destPath := filepath.Join(destDir, name+".yaml")
		if err := profile.SaveProfileToFile(builtins[name], destPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", destPath, err)
		}
		fmt.Printf("  %s\n", destPath)
	}

	return nil
}
