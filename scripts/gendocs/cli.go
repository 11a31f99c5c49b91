package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// generateCLIDocs writes index.md and one page per top-level command of
// root into outDir. Subcommands are documented as sections of their
// parent's page.
func generateCLIDocs(root *cobra.Command, outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeDoc(outDir, "index.md", cliIndex(root)); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}

	for _, cmd := range documented(root) {
		w := NewMarkdownWriter()
		w.Frontmatter(cmd.Name(), cmd.Short)
		w.GeneratedMarker()
		writeCommand(w, cmd, 1)

		if err := writeDoc(outDir, cmd.Name()+".md", w); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", cmd.Name(), err)
		}
		log.Printf("  Generated %s.md", cmd.Name())
	}
	return nil
}

func writeDoc(outDir, name string, w *MarkdownWriter) error {
	return os.WriteFile(filepath.Join(outDir, name), w.Bytes(), 0600)
}

// documented lists the subcommands that get documentation.
func documented(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, sub := range cmd.Commands() {
		if sub.Hidden || !sub.IsAvailableCommand() || sub.Name() == "help" {
			continue
		}
		out = append(out, sub)
	}
	return out
}

func cliIndex(root *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for polyscan")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)
	w.CodeBlock("bash", "polyscan <command> [options]")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range documented(root) {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	w.Table(flagHeaders, flagRows(root.PersistentFlags()))

	w.Header(2, "Environment")
	w.Paragraph("Each configuration key can be set as `POLYSCAN_<KEY>`; nested keys use a double underscore, e.g. `POLYSCAN_SERVER__PORT`. Flags override the environment, which overrides `polyscan.yaml`. See the [configuration reference](/configuration).")

	w.Header(2, "Exit Status")
	w.BulletList([]string{
		InlineCode("0") + " on success, including searches stopped with Ctrl+C or --timeout",
		InlineCode("1") + " on any error; details go to stderr",
	})
	return w
}

// writeCommand documents cmd under a header of the given level and
// recurses into its subcommands one level deeper.
func writeCommand(w *MarkdownWriter, cmd *cobra.Command, level int) {
	title := cmd.Name()
	if level > 1 {
		title = cmd.CommandPath()
	}
	w.Header(level, title)

	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	w.Paragraph(desc)

	if cmd.Runnable() {
		w.CodeBlock("bash", cmd.UseLine())
	}
	if len(cmd.Aliases) > 0 {
		w.Paragraph("Aliases: " + InlineCode(strings.Join(cmd.Aliases, "`, `")))
	}
	if cmd.HasAvailableLocalFlags() {
		w.Header(level+1, "Options")
		w.Table(flagHeaders, flagRows(cmd.LocalFlags()))
	}
	if cmd.Example != "" {
		w.Header(level+1, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}

	for _, sub := range documented(cmd) {
		writeCommand(w, sub, level+1)
	}
}

var flagHeaders = []string{"Option", "Default", "Description"}

func flagRows(flags *pflag.FlagSet) [][]string {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		option := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			option = InlineCode("-"+f.Shorthand) + ", " + option
		}
		rows = append(rows, []string{option, flagDefault(f), cleanDescription(f.Usage)})
	})
	return rows
}

// flagDefault renders the default of f; zero values are left blank so the
// usage text can describe the configured default.
func flagDefault(f *pflag.Flag) string {
	switch f.DefValue {
	case "", "0", "0s", "false", "[]":
		return ""
	}
	return InlineCode(f.DefValue)
}

// dedent strips the indentation shared by all non-blank lines of s.
func dedent(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.TrimSpace(s)
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimSpace(line)
		}
	}
	return strings.Join(lines, "\n")
}
