package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/tfstudio/internal/config"
	"github.com/kalambet/tfstudio/internal/library"
	"github.com/kalambet/tfstudio/internal/tsf"
)

// upgradeConcurrency bounds the files upgraded at once.
const upgradeConcurrency = 4

// --- encode ---

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Build a version 2 TSF string from flags or a profile document",
	Long: `Build a version 2 TSF string from flags or a profile document.

List flags take content=value; a chance list entry without a value uses the
default chance of 30.

Examples:
  tfstudio encode --name Cat --image i.imgur.com/cat.png --hush --prefix Meow=40
  tfstudio encode --from cat.yaml --save
  tfstudio encode --from cat.json --censor dog=cat --output cat.tsf`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profileFromFlags(cmd)
		if err != nil {
			return err
		}
		text := tsf.Encode(p)

		output, _ := cmd.Flags().GetString("output")
		if save, _ := cmd.Flags().GetBool("save"); save && output == "" {
			output = saveFilename(p.TargetName)
		}
		if output == "" {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		}
		if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		printSuccess("Wrote %s", output)
		return nil
	},
}

// saveFilename is the file --save writes: <name>.tsf in the working
// directory, whatever path elements the name contains.
func saveFilename(name string) string {
	return filepath.Base(library.Filename(filepath.FromSlash(name)))
}

// listFlags maps the repeatable list flags onto profile lists.
var listFlags = []struct {
	name string
	kind tsf.ListKind
	help string
}{
	{"prefix", tsf.ListPrefixes, "prefix entry content=chance (repeatable)"},
	{"suffix", tsf.ListSuffixes, "suffix entry content=chance (repeatable)"},
	{"sprinkle", tsf.ListSprinkles, "sprinkle entry content=chance (repeatable)"},
	{"muffle", tsf.ListMuffles, "muffle entry content=chance (repeatable)"},
	{"alt-muffle", tsf.ListAltMuffles, "alternative muffle entry content=chance (repeatable)"},
	{"censor", tsf.ListCensors, "censor entry word=replacement (repeatable)"},
}

func addProfileFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("from", "", "profile document to start from (.json, .yaml, .yml, .toml)")
	f.String("name", "", "name of the transformation target")
	f.String("image", "", "image URL of the target")
	f.Bool("big", false, "set the big flag")
	f.Bool("small", false, "set the small flag")
	f.Bool("hush", false, "set the hush flag")
	f.Bool("backwards", false, "set the backwards flag")
	f.Int("stutter", 0, "stutter intensity")
	f.String("bio", "", "biography text")
	for _, lf := range listFlags {
		f.StringArray(lf.name, nil, lf.help)
	}
	f.Bool("no-normalize", false, "skip name and image checks")
}

// profileFromFlags builds a profile from --from and the profile flags. Flags
// that were set override the document; list flags append to it.
func profileFromFlags(cmd *cobra.Command) (tsf.Profile, error) {
	f := cmd.Flags()

	var p tsf.Profile
	if from, _ := f.GetString("from"); from != "" {
		loaded, err := readProfileFile(from)
		if err != nil {
			return tsf.Profile{}, err
		}
		p = loaded
	}

	if f.Changed("name") {
		p.TargetName, _ = f.GetString("name")
	}
	if f.Changed("image") {
		p.ImageReference, _ = f.GetString("image")
	}
	if f.Changed("big") {
		p.Flags.Big, _ = f.GetBool("big")
	}
	if f.Changed("small") {
		p.Flags.Small, _ = f.GetBool("small")
	}
	if f.Changed("hush") {
		p.Flags.Hush, _ = f.GetBool("hush")
	}
	if f.Changed("backwards") {
		p.Flags.Backwards, _ = f.GetBool("backwards")
	}
	if f.Changed("stutter") {
		p.Stutter, _ = f.GetInt("stutter")
		if p.Stutter < 0 {
			return tsf.Profile{}, fmt.Errorf("--stutter must not be negative")
		}
	}
	if f.Changed("bio") {
		p.Biography, _ = f.GetString("bio")
	}

	for _, lf := range listFlags {
		values, _ := f.GetStringArray(lf.name)
		entries := p.List(lf.kind)
		for _, v := range values {
			content, value, _ := strings.Cut(v, "=")
			e, err := library.NewEntry(lf.kind, content, value)
			if err != nil {
				return tsf.Profile{}, fmt.Errorf("--%s %q: %w", lf.name, v, err)
			}
			entries = append(entries, e)
		}
		p.SetList(lf.kind, entries)
	}

	if skip, _ := f.GetBool("no-normalize"); skip {
		return p, nil
	}
	return library.Normalize(p)
}

func init() {
	addProfileFlags(encodeCmd)
	encodeCmd.Flags().StringP("output", "o", "", "write the TSF text to this file")
	encodeCmd.Flags().Bool("save", false, "write the TSF text to <name>.tsf")
}

// --- decode ---

var decodeCmd = &cobra.Command{
	Use:   "decode <file|->",
	Short: "Decode a TSF file of any version into a profile document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = defaultFormat()
		}
		info, _ := cmd.Flags().GetBool("info")

		text, err := readTSFInput(args[0], cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		return runDecode(cmd.OutOrStdout(), text, format, info)
	},
}

func runDecode(w io.Writer, text, format string, info bool) error {
	p, err := tsf.Parse(text)
	if err != nil {
		return fmt.Errorf("%w: %w", library.ErrInvalidTSF, err)
	}
	if info {
		h := tsf.Sniff(text)
		printStatus("Version", "%d", h.Version)
		printStatus("Separator", "%q", h.Separator)
		printStatus("Fields", "%d", h.Fields)
	}
	return writeProfile(w, p, format)
}

// defaultFormat is library.default_format, or json when the config does
// not load.
func defaultFormat() string {
	cfg, err := config.Load()
	if err != nil {
		return "json"
	}
	return cfg.Library.DefaultFormat
}

func init() {
	decodeCmd.Flags().StringP("format", "f", "", "output format: json, yaml or toml (default from library.default_format)")
	decodeCmd.Flags().Bool("info", false, "print version, separator and field count to stderr")
}

// --- upgrade ---

var upgradeCmd = &cobra.Command{
	Use:   "upgrade <file>...",
	Short: "Rewrite legacy TSF files as version 2",
	Long: `Rewrite legacy TSF files as version 2.

By default the upgraded text is written next to each file with the --suffix
inserted before the extension (cat.tsf -> cat.v2.tsf). Files already in
version 2 are left alone.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inPlace, _ := cmd.Flags().GetBool("in-place")
		suffix, _ := cmd.Flags().GetString("suffix")
		if !inPlace && suffix == "" {
			return fmt.Errorf("--suffix must not be empty unless --in-place is set")
		}

		results, err := upgradeFiles(cmd.Context(), args, inPlace, suffix)
		if err != nil {
			return err
		}

		failed := 0
		for _, r := range results {
			switch {
			case r.err != nil:
				failed++
				printError("%s: %v", r.path, r.err)
			case r.version == tsf.CurrentVersion:
				printStatus(r.path, "already version %d", r.version)
			default:
				printSuccess("%s: version %d -> %s", r.path, r.version, r.output)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be upgraded", failed, len(results))
		}
		return nil
	},
}

type upgradeResult struct {
	path    string
	output  string
	version int
	err     error
}

// upgradeFiles upgrades every file and reports per-file results in input
// order. Only context cancellation is returned as an error.
func upgradeFiles(ctx context.Context, paths []string, inPlace bool, suffix string) ([]upgradeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]upgradeResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(upgradeConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = upgradeFile(path, inPlace, suffix)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func upgradeFile(path string, inPlace bool, suffix string) upgradeResult {
	res := upgradeResult{path: path}

	text, err := readTSFInput(path, nil)
	if err != nil {
		res.err = err
		return res
	}
	out, version, err := tsf.Upgrade(text)
	if err != nil {
		res.err = fmt.Errorf("%w: %w", library.ErrInvalidTSF, err)
		return res
	}
	res.version = version
	if version == tsf.CurrentVersion {
		return res
	}

	res.output = path
	if !inPlace {
		res.output = withSuffix(path, suffix)
	}
	info, err := os.Stat(path)
	if err != nil {
		res.err = err
		return res
	}
	if err := os.WriteFile(res.output, []byte(out), info.Mode().Perm()); err != nil {
		res.err = err
	}
	return res
}

// withSuffix inserts suffix before the extension: cat.tsf -> cat.v2.tsf.
func withSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

func init() {
	upgradeCmd.Flags().Bool("in-place", false, "overwrite the original files")
	upgradeCmd.Flags().String("suffix", ".v2", "suffix for upgraded copies")
}

// --- library ---

var libraryCmd = &cobra.Command{
	Use:     "library",
	Aliases: []string{"lib"},
	Short:   "Manage the transformation library of a running server",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved transformations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runLibraryList(cmd.Context(), client, cmd.OutOrStdout(), limit, offset)
	},
}

func runLibraryList(ctx context.Context, client *apiClient, w io.Writer, limit, offset int) error {
	resp, err := client.get(ctx, fmt.Sprintf("/transformations?limit=%d&offset=%d", limit, offset))
	if err != nil {
		return err
	}

	var list struct {
		Transformations []library.Transformation `json:"transformations"`
		Total           int                      `json:"total"`
	}
	if err := decodeJSON(resp, &list); err != nil {
		return err
	}

	if len(list.Transformations) == 0 {
		printStatus("Transformations", "none")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFROM\tUPDATED")
	for _, t := range list.Transformations {
		fmt.Fprintf(tw, "%s\t%s\tv%d\t%s\n", t.ID, t.Name, t.SourceVersion, t.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if shown := offset + len(list.Transformations); shown < list.Total {
		printStatus("Showing", "%d-%d of %d", offset+1, shown, list.Total)
	}
	return nil
}

var libraryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved transformation as a profile document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = defaultFormat()
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/transformations/"+args[0])
		if err != nil {
			return err
		}
		var t library.Transformation
		if err := decodeJSON(resp, &t); err != nil {
			return err
		}

		printStatus("TSF", "%s", t.TSF)
		return writeProfile(cmd.OutOrStdout(), t.Profile, format)
	},
}

var libraryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a transformation built from flags or a profile document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profileFromFlags(cmd)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/transformations", p)
		if err != nil {
			return err
		}
		var t library.Transformation
		if err := decodeJSON(resp, &t); err != nil {
			return err
		}

		printSuccess("Saved %s as %s", t.Name, t.ID)
		return nil
	},
}

var libraryImportCmd = &cobra.Command{
	Use:   "import <file|->...",
	Short: "Import TSF files of any version",
	Args:  cobra.MatchAll(cobra.MinimumNArgs(1), stdinAtMostOnce),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		failed := 0
		for _, path := range args {
			t, err := importFile(cmd.Context(), client, path, cmd.InOrStdin())
			if err != nil {
				failed++
				printError("%s: %v", path, err)
				continue
			}
			printSuccess("Imported %s (version %d) as %s", t.Name, t.SourceVersion, t.ID)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be imported", failed, len(args))
		}
		return nil
	},
}

// stdinAtMostOnce rejects argument lists that name stdin ("-") more than once.
func stdinAtMostOnce(cmd *cobra.Command, args []string) error {
	seen := false
	for _, a := range args {
		if a != "-" {
			continue
		}
		if seen {
			return fmt.Errorf("stdin (-) can be read only once")
		}
		seen = true
	}
	return nil
}

func importFile(ctx context.Context, client *apiClient, path string, stdin io.Reader) (library.Transformation, error) {
	text, err := readTSFInput(path, stdin)
	if err != nil {
		return library.Transformation{}, err
	}
	resp, err := client.postText(ctx, "/transformations/import", text)
	if err != nil {
		return library.Transformation{}, err
	}
	var t library.Transformation
	if err := decodeJSON(resp, &t); err != nil {
		return library.Transformation{}, err
	}
	return t, nil
}

var libraryExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Download a saved transformation as a .tsf file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path, err := runLibraryExport(cmd.Context(), client, args[0], output, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if path != "" {
			printSuccess("Wrote %s", path)
		}
		return nil
	},
}

// runLibraryExport writes the exported text to output, to the server's
// suggested filename when output is empty, or to w when output is "-". It
// returns the path written.
func runLibraryExport(ctx context.Context, client *apiClient, id, output string, w io.Writer) (string, error) {
	resp, err := client.get(ctx, "/transformations/"+id+"/export")
	if err != nil {
		return "", err
	}
	filename, data, err := readAttachment(resp)
	if err != nil {
		return "", err
	}

	if output == "-" {
		_, err := fmt.Fprintln(w, string(data))
		return "", err
	}
	if output == "" {
		output = filepath.Base(filename)
		if output == "" || output == "." || output == string(filepath.Separator) {
			output = id + ".tsf"
		}
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", output, err)
	}
	return output, nil
}

var libraryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved transformation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/transformations/"+args[0])
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted %s", args[0])
		return nil
	},
}

func init() {
	libraryListCmd.Flags().Int("limit", 20, "maximum number of transformations to list")
	libraryListCmd.Flags().Int("offset", 0, "number of transformations to skip")
	libraryShowCmd.Flags().StringP("format", "f", "", "output format: json, yaml or toml")
	addProfileFlags(libraryAddCmd)
	libraryExportCmd.Flags().StringP("output", "o", "", "output file, - for stdout (default: <name>.tsf)")

	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryShowCmd)
	libraryCmd.AddCommand(libraryAddCmd)
	libraryCmd.AddCommand(libraryImportCmd)
	libraryCmd.AddCommand(libraryExportCmd)
	libraryCmd.AddCommand(libraryDeleteCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s  (%s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Set a configuration value",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.ValidKeys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
