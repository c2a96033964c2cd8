package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/foldmap/sourcemap/internal/sourcemap"
)

var rootCmd = &cobra.Command{
	Use:   "sourcemap-compose",
	Short: "Fold a chain of source maps into one.",
	Long:  "sourcemap-compose folds N source maps applied in sequence into a single map describing the same transformation.",
}

var composeCmd = &cobra.Command{
	Use:   "compose map1.json map2.json ... [flags]",
	Short: "Compose a chain of source maps, deepest first, into one.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}

		paths := args
		if chainName := GetString(cmd, "chain"); chainName != "" {
			cfg := loadConfigOrExit(GetString(cmd, "config"))
			resolved, err := cfg.Resolve(chainName)
			if err != nil {
				log.Fatal(err)
			}
			paths = resolved
		}
		if len(paths) == 0 {
			log.Fatal("no source maps given: pass paths as arguments or --chain with --config")
		}

		maps := make([]*sourcemap.Map, len(paths))
		for i, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				log.Fatalf("reading %q: %v", p, err)
			}
			m, err := sourcemap.Parse(data)
			if err != nil {
				log.Fatalf("parsing %q: %v", p, err)
			}
			maps[i] = m
			log.Debugf("parsed %q", p)
		}

		composed, err := sourcemap.Compose(maps)
		if err != nil {
			log.Fatalf("compose: %v", err)
		}

		if !GetFlag(cmd, "x-facebook-sources") && composed.Flat != nil {
			composed.Flat.Facebook = nil
		}

		out, err := composed.Marshal()
		if err != nil {
			log.Fatalf("marshal: %v", err)
		}

		output := GetString(cmd, "output")
		if output == "" || output == "-" {
			fmt.Println(string(out))
			return
		}
		if err := os.WriteFile(output, out, 0o644); err != nil {
			log.Fatalf("writing %q: %v", output, err)
		}
		log.Infof("wrote composed map to %q", output)
	},
}

func loadConfigOrExit(path string) *Config {
	if path == "" {
		log.Fatal("--chain requires --config")
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.AddCommand(composeCmd)

	composeCmd.Flags().StringP("output", "o", "", "write the composed map here instead of stdout")
	composeCmd.Flags().String("config", "", "path to a TOML file of named chain presets")
	composeCmd.Flags().String("chain", "", "compose the named chain from --config instead of positional arguments")
	composeCmd.Flags().Bool("x-facebook-sources", true, "carry x_facebook_sources metadata into the composed output")
}

// GetFlag gets an expected boolean flag, or exits if the flag doesn't exist.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		log.Fatal(err)
	}
	return r
}

// GetString gets an expected string flag, or exits if the flag doesn't exist.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		log.Fatal(err)
	}
	return r
}
