// sketchgen init [path]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sketchgen-build/sketchgen/internal/msg"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "sketchgen"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

// initIn scaffolds a sketch project in an existing directory. Arduino wants
// the .ino named after its directory.
func initIn(dir, name string) {
	writefile(`void setup() {
    Serial.begin(115200);
}

void loop() {
    Serial.println("Hello, World!");
    delay(1000);
}
`, dir, name+".ino")

	writefile(`fqbn: arduino:avr:uno

cflags:
  - -Wall

# libs:
#   - ~/Arduino/libraries/SomeLibrary

# qmake_dirs:
#   - ../shared
# qmake_exclude_dirs:
#   - ../shared/attic
`, dir, "sketchgen.yaml")

	writefile(`bin/
Makefile
*.pro
*.pri
`, dir, ".gitignore")

	programName := getProgramName()
	fmt.Printf("You can now do %s to generate a Makefile for it.\n",
		color.HiCyanString(programName+" --sketch "+filepath.Join(dir, name+".ino")+" --config "+filepath.Join(dir, "sketchgen.yaml")+" --makefile "+filepath.Join(dir, "Makefile")))
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a new sketch project in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
