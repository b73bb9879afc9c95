// Command ooxmltpl runs the placeholder substitution pipeline over
// already-extracted XML document parts. Container (ZIP) handling is the
// caller's job: point the commands at a directory laid out like the
// container ("word/document.xml", "ppt/slides/slide1.xml", ...) and the
// rendered parts are written back in the same layout.
package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tmey2016/ooxml-templater-sub000/pkg/templater"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "ooxmltpl",
	Short: "Placeholder substitution for extracted OOXML parts",
	Long: `ooxmltpl fills (((...))) placeholders embedded in the XML parts of
Office-document containers and removes pages, slides, or rows whose
driving value is empty.

The commands operate on a directory of extracted parts; extracting and
recreating the container itself is out of scope.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := templater.GetGlobalConfig()
		if level := viper.GetString("log-level"); level != "" {
			config.LogLevel = level
		}
		if viper.IsSet("strict") {
			config.StrictMode = viper.GetBool("strict")
		}
		if err := config.Validate(); err != nil {
			return err
		}
		templater.SetGlobalConfig(config)
		return nil
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse <parts-dir>",
	Short: "List the markers found in a part directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parts, err := loadParts(args[0])
		if err != nil {
			return err
		}
		result := templater.Parse(parts)

		for _, part := range result.Parts {
			markers := result.MarkersByPart[part.Path]
			if len(markers) == 0 {
				continue
			}
			fmt.Printf("%s (%s):\n", part.Path, part.Kind())
			for _, m := range markers {
				switch m.Kind {
				case templater.MarkerNumeric:
					fmt.Printf("  [%d:%d] numeric %s -> %s\n", m.Start, m.End(), m.Number, m.Path)
				case templater.MarkerDelete:
					fmt.Printf("  [%d:%d] delete %s (%s) -> %s\n", m.Start, m.End(), m.Directive, m.Target, m.Path)
				default:
					fmt.Printf("  [%d:%d] standard -> %s\n", m.Start, m.End(), m.Path)
				}
			}
		}
		fmt.Printf("\n%d markers, %d unique paths, %d numeric, %d delete\n",
			result.MarkerCount(), len(result.UniquePaths), len(result.NumericMarkers), len(result.DeleteMarkers))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <parts-dir>",
	Short: "Check data coverage for a part directory without rendering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parts, err := loadParts(args[0])
		if err != nil {
			return err
		}
		dataFile, _ := cmd.Flags().GetString("data")
		data, err := loadData(dataFile)
		if err != nil {
			return err
		}

		report := templater.Validate(templater.Parse(parts), data)
		fmt.Printf("valid: %v\ncoverage: %.1f%%\n", report.Valid, report.CoveragePct)
		for _, path := range report.MissingPaths {
			fmt.Printf("missing: %s\n", path)
		}
		for _, msg := range report.TypeErrors {
			fmt.Printf("type error: %s\n", msg)
		}
		if !report.Valid {
			os.Exit(1)
		}
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <parts-dir>",
	Short: "Substitute placeholders and write the rewritten parts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parts, err := loadParts(args[0])
		if err != nil {
			return err
		}
		dataFile, _ := cmd.Flags().GetString("data")
		data, err := loadData(dataFile)
		if err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("out")
		if outDir == "" {
			return fmt.Errorf("--out directory is required")
		}

		config := templater.GetGlobalConfig()
		opts := config.Options()
		engine := templater.NewWithConfig(config)
		defer engine.Close()

		result, renderErr := engine.Render(parts, data, opts)
		if result != nil {
			for _, part := range result.Parts {
				if part.Deleted {
					continue
				}
				target := filepath.Join(outDir, filepath.FromSlash(part.Path))
				if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(target, []byte(part.Text), 0o644); err != nil {
					return err
				}
			}
			fmt.Printf("resolved %d/%d placeholders (%d failed), %d regions deleted\n",
				result.Stats.Success, result.Stats.Total, result.Stats.Fail, result.Stats.DeletedCount)
			for _, err := range result.Errors {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		}
		return renderErr
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ooxmltpl version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error, off)")
	rootCmd.PersistentFlags().Bool("strict", false, "fail on missing placeholder paths")
	validateCmd.Flags().String("data", "", "data file (YAML or JSON)")
	renderCmd.Flags().String("data", "", "data file (YAML or JSON)")
	renderCmd.Flags().String("out", "", "output directory for rewritten parts")

	viper.SetEnvPrefix("OOXMLTPL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	cobra.CheckErr(viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("strict", rootCmd.PersistentFlags().Lookup("strict")))

	rootCmd.AddCommand(parseCmd, validateCmd, renderCmd, versionCmd)
}

// loadParts reads every .xml file under dir as one part; the part path
// is the slash-separated path relative to dir, matching the container
// layout.
func loadParts(dir string) ([]templater.Part, error) {
	var parts []templater.Part
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".xml") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		parts = append(parts, templater.Part{Path: filepath.ToSlash(rel), Text: string(content)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read parts from %s: %w", dir, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no .xml parts found under %s", dir)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Path < parts[j].Path })
	return parts, nil
}

// loadData reads the value tree from a YAML or JSON file. No file means
// an empty tree, which renders with every path unresolved.
func loadData(path string) (templater.TemplateData, error) {
	if path == "" {
		return templater.TemplateData{}, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	data := templater.TemplateData{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("failed to parse JSON data: %w", err)
		}
	default:
		if err := yaml.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("failed to parse YAML data: %w", err)
		}
	}
	return data, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
