// sketchgen [flags], sketchgen generate [flags]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sketchgen-build/sketchgen/internal/config"
	"github.com/sketchgen-build/sketchgen/internal/defines"
	"github.com/sketchgen-build/sketchgen/internal/gen"
	"github.com/sketchgen-build/sketchgen/internal/msg"
	"github.com/sketchgen-build/sketchgen/internal/pathutil"
	"github.com/sketchgen-build/sketchgen/internal/scan"
)

var (
	flagSketch           string
	flagConfigs          []string
	flagMakefile         string
	flagMakefileTemplate string
	flagQmake            string
	flagQmakeTemplate    string
)

func doGenerate(cmd *cobra.Command, args []string) {
	start := time.Now()

	cwd, err := os.Getwd()
	if err != nil {
		msg.Fatal("could not get current directory: %v", err)
	}

	sketch, err := pathutil.New(flagSketch, cwd)
	if err != nil {
		msg.Fatal("%v", err)
	}
	if !scan.IsFile(sketch.Abs) {
		msg.Fatal("sketch %s does not exist", sketch.Abs)
	}

	if !strings.HasPrefix(filepath.Base(flagMakefile), "Makefile") {
		msg.Fatal("please use a Makefile base name starting with \"Makefile\"")
	}
	makefile, err := pathutil.New(flagMakefile, cwd)
	if err != nil {
		msg.Fatal("%v", err)
	}

	var qmake pathutil.Path
	if flagQmake != "" {
		if !strings.HasSuffix(flagQmake, ".pro") {
			msg.Fatal("please use a qmake file name ending with \".pro\"")
		}
		if qmake, err = pathutil.New(flagQmake, cwd); err != nil {
			msg.Fatal("%v", err)
		}
	}

	for _, tmpl := range []string{flagMakefileTemplate, flagQmakeTemplate} {
		if tmpl != "" && !scan.IsFile(tmpl) {
			msg.Fatal("template %s does not exist", tmpl)
		}
	}

	cfg, err := config.Load(flagConfigs, cwd)
	if err != nil {
		msg.Fatal("%v", err)
	}

	fmt.Println("Loaded configuration:")
	fmt.Println(cfg)
	fmt.Println()

	msg.Step("Generating", "%s", makefile.Abs)
	mk := gen.NewMakefile(cfg, makefile, sketch, flagMakefileTemplate)
	rendered, err := mk.Render()
	if err != nil {
		msg.Fatal("%v", err)
	}
	if err := gen.WriteAll([]gen.File{rendered}); err != nil {
		msg.Fatal("%v", err)
	}

	if flagQmake != "" {
		q := gen.NewQmake(cfg, qmake, sketch, makefile, flagQmakeTemplate)

		msg.Step("Scanning", "files for qmake generation")
		cls := scan.Classify(q.IncludeRoots(), q.ExcludeRoots())

		defs := defines.Extract(makefile.Abs)

		msg.Step("Generating", "%s", qmake.Abs)
		files, err := q.Render(cls, defs)
		if err != nil {
			msg.Fatal("%v", err)
		}
		if err := gen.WriteAll(files); err != nil {
			msg.Fatal("%v", err)
		}
	}

	msg.Step("Finished", "in %.3fs", time.Since(start).Seconds())
}

var rootCmd = &cobra.Command{
	Use:   "sketchgen",
	Short: "Generate a Makefile and qmake project for an Arduino sketch",
	Long: `Generate a Makefile and optionally a qmake project for an Arduino sketch.
This allows building the sketch from the command line, and editing, building
and running it from Qt Creator. Both rely on arduino-cli being installed and
in PATH. Generation is driven by layered YAML (or TOML) configuration files.`,
	Run: doGenerate,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the project files",
	Run:   doGenerate,
}

func init() {
	addGenerateFlags(rootCmd)

	rootCmd.AddCommand(generateCmd)
	addGenerateFlags(generateCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagSketch, "sketch", "", "Arduino sketch path")
	cmd.Flags().StringArrayVar(&flagConfigs, "config", nil, "Configuration file path, may be passed multiple times")
	cmd.Flags().StringVar(&flagMakefile, "makefile", "", "Makefile generation path")
	cmd.Flags().StringVar(&flagMakefileTemplate, "makefile-template", "", "Makefile template path")
	cmd.Flags().StringVar(&flagQmake, "qmake", "", "qmake project generation path. If not passed, no qmake project is generated")
	cmd.Flags().StringVar(&flagQmakeTemplate, "qmake-template", "", "qmake project template path")
	cmd.MarkFlagRequired("sketch")
	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("makefile")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
