package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/leapstack-labs/polyscan/internal/cli/config"
)

// keyDescriptions documents each configuration key.
var keyDescriptions = map[string]string{
	"expression":   "Polynomial expression in the variables and the target n",
	"variables":    "Variable names, as a list or a comma-separated string",
	"n_start":      "First target value",
	"n_end":        "Last target value, inclusive",
	"radius":       "Search radius R; each variable ranges over [-R, R]",
	"tolerance":    "Absolute residual bound for accepting a tuple",
	"evaluator":    "Expression backend: native or expr",
	"workers":      "Number of target values scanned concurrently",
	"event_buffer": "Capacity of the run event channel; -1 hands every event over synchronously so a stop takes effect at the next record",
	"timeout":      "Stop a search after this duration; 0 disables",
	"state_path":   "Result archive path, relative to the config file",
	"persist":      "Archive runs and records",
	"verbose":      "Verbose output and debug logging",
	"output":       "Output format: auto, text, markdown, json, csv, yaml, table",
	"log_level":    "Log level: debug, info, warn, error",
	"log_format":   "Log format: text or json",
	"server.addr":  "Address the HTTP server binds",
	"server.port":  "Port the HTTP server listens on",
}

// configKey is one documented configuration key.
type configKey struct {
	Name string
	Type string
}

// configKeys walks the koanf tags of config.Config.
func configKeys(t reflect.Type, prefix string) []configKey {
	var keys []configKey
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if tag == "" {
			continue
		}
		name := prefix + tag
		if f.Type.Kind() == reflect.Struct && f.Type.PkgPath() != "time" {
			keys = append(keys, configKeys(f.Type, name+".")...)
			continue
		}
		keys = append(keys, configKey{Name: name, Type: typeName(f.Type)})
	}
	return keys
}

func typeName(t reflect.Type) string {
	switch {
	case t.Kind() == reflect.Slice:
		return "list of " + t.Elem().Kind().String()
	case t.String() == "time.Duration":
		return "duration"
	default:
		return t.Kind().String()
	}
}

// generateConfigDoc writes the configuration reference page.
func generateConfigDoc(outDir string) error {
	log.Printf("Generating configuration reference to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "polyscan configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("polyscan reads `polyscan.yaml` (or `polyscan.yml`) from the working directory, or the file passed with `--config`. Values are layered: built-in defaults, then the file, then `POLYSCAN_*` environment variables, then explicitly set flags.")

	keys := configKeys(reflect.TypeOf(config.Config{}), "")
	sort.SliceStable(keys, func(i, j int) bool {
		return strings.Count(keys[i].Name, ".") < strings.Count(keys[j].Name, ".")
	})

	defaults := config.Defaults()
	var rows [][]string
	for _, k := range keys {
		def := "-"
		if v, ok := defaults[k.Name]; ok {
			def = InlineCode(fmt.Sprint(v))
		}
		env := "POLYSCAN_" + strings.ToUpper(strings.ReplaceAll(k.Name, ".", "__"))
		rows = append(rows, []string{InlineCode(k.Name), k.Type, def, InlineCode(env), keyDescriptions[k.Name]})
	}
	w.Header(2, "Keys")
	w.Table([]string{"Key", "Type", "Default", "Environment", "Description"}, rows)

	w.Header(2, "Example")
	w.CodeBlock("yaml", `# polyscan.yaml
expression: "x**3 + y**3 + z**3"
variables: [x, y, z]
n_start: 1
n_end: 100
radius: 50
evaluator: native
workers: 4
state_path: .polyscan/state.db
log_level: info
server:
  addr: 127.0.0.1
  port: 8765`)

	filename := filepath.Join(outDir, "configuration.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}
