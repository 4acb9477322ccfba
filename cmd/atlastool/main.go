// atlastool packs directories of sprites into texture atlases and unpacks
// atlases back into sprites.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/atlastool/internal/atlastool"
	"github.com/Faultbox/atlastool/internal/config"
	"github.com/Faultbox/atlastool/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "collapse", "c":
		cmdCollapse(args)
	case "expand", "x":
		cmdExpand(args)
	case "collapse-all":
		cmdCollapseAll(args)
	case "expand-all":
		cmdExpandAll(args)
	case "info":
		cmdInfo(args)
	case "init-config":
		cmdInitConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`atlastool - sprite atlas packer

Usage:
  atlastool <command> [options]

Commands:
  collapse <inDir> <atlas.png>        Pack a sprite directory into an atlas
  expand <file.atlas> <outDir>        Unpack an atlas into sprites
  collapse-all <inDir> <outDir>       Pack every subdirectory into its own atlas
  expand-all <inDir> <outDir>         Unpack every .atlas file in a directory
  info <file.atlas>                   Show atlas information
  init-config [path]                  Write the default config file

Options:
  -config <file>       Config file (default ./atlastool.yaml or user config dir)
  -debug               Enable debug logging
  -ascii               Write the text index instead of the binary one
  -algorithm <name>    maxrects or guillotine
  -max-sheets <n>      Maximum sheets per atlas (0 = unlimited)
  -workers <n>         Parallel atlases for collapse-all/expand-all
  -log-file <file>     Also write logs to a rotating file

Sprites named name-=-N-=-.png belong to sequence N of name. A sibling
name_n.png is packed into a matching normal map sheet.

Examples:
  atlastool collapse sprites/hero out/hero.png
  atlastool expand out/hero.atlas restored/hero
  atlastool collapse-all -workers 4 sprites out
  atlastool info -thumbs thumbs out/hero.atlas`)
}

// setup parses the shared flags into fs, loads the config and starts
// logging. Flags may follow positional arguments. It exits with a usage
// message when fewer than nargs positional arguments are given.
func setup(fs *flag.FlagSet, args []string, nargs int, usage string) (*config.Config, []string) {
	config.RegisterFlags(fs)

	var pos []string
	for {
		fs.Parse(args)
		if fs.NArg() == 0 {
			break
		}
		pos = append(pos, fs.Arg(0))
		args = fs.Args()[1:]
	}

	if len(pos) < nargs {
		fmt.Fprintln(os.Stderr, "Usage: atlastool "+usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	source := cfg.Source
	if source == "" {
		source = "defaults"
	}
	logger.Debug("config loaded",
		zap.String("source", source),
		zap.String("algorithm", cfg.Packing.Algorithm),
		zap.String("format", cfg.Output.Format),
		zap.Int("max_sheets", cfg.Packing.MaxSheets))
	return cfg, pos
}

func options(cfg *config.Config) atlastool.Options {
	pack, err := cfg.PackOptions()
	if err != nil {
		fail(err)
	}
	return atlastool.Options{
		Pack:    pack,
		Text:    cfg.TextOutput(),
		Bleed:   cfg.Processing.Bleed,
		Workers: cfg.Workers(),
	}
}

func fail(err error) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdCollapse(args []string) {
	fs := flag.NewFlagSet("collapse", flag.ExitOnError)
	cfg, pos := setup(fs, args, 2, "collapse <inDir> <atlas.png>")
	defer logger.Sync()

	res, err := atlastool.Collapse(pos[0], pos[1], options(cfg))
	if err != nil {
		fail(err)
	}

	fmt.Printf("Atlas:      %s\n", res.Index)
	for _, s := range res.Sheets {
		fmt.Printf("Sheet:      %s\n", s)
	}
	fmt.Printf("Tiles:      %d\n", res.Tiles)
	fmt.Printf("Duplicates: %d\n", res.Duplicates)
	if res.Dropped > 0 {
		fmt.Printf("Empty:      %d (skipped)\n", res.Dropped)
	}
}

func cmdExpand(args []string) {
	fs := flag.NewFlagSet("expand", flag.ExitOnError)
	_, pos := setup(fs, args, 2, "expand <file.atlas> <outDir>")
	defer logger.Sync()

	n, err := atlastool.Expand(pos[0], pos[1])
	if err != nil {
		fail(err)
	}
	fmt.Printf("Extracted %d images to %s\n", n, pos[1])
}

func cmdCollapseAll(args []string) {
	fs := flag.NewFlagSet("collapse-all", flag.ExitOnError)
	cfg, pos := setup(fs, args, 2, "collapse-all <inDir> <outDir>")
	defer logger.Sync()

	res, err := atlastool.CollapseAll(pos[0], pos[1], options(cfg))
	fmt.Printf("Collapsed %d/%d atlases\n", res.Succeeded, res.Units)
	if err != nil {
		fail(err)
	}
}

func cmdExpandAll(args []string) {
	fs := flag.NewFlagSet("expand-all", flag.ExitOnError)
	cfg, pos := setup(fs, args, 2, "expand-all <inDir> <outDir>")
	defer logger.Sync()

	res, err := atlastool.ExpandAll(pos[0], pos[1], cfg.Workers())
	fmt.Printf("Expanded %d/%d atlases\n", res.Succeeded, res.Units)
	if err != nil {
		fail(err)
	}
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	thumbs := fs.String("thumbs", "", "Write sheet thumbnails to this directory")
	size := fs.Uint("size", 256, "Maximum thumbnail width and height")
	_, pos := setup(fs, args, 1, "info <file.atlas> [-thumbs dir] [-size N]")
	defer logger.Sync()

	sum, err := atlastool.Inspect(pos[0], *thumbs, *size)
	if err != nil {
		fail(err)
	}

	fmt.Printf("Atlas:   %s\n", sum.Path)
	fmt.Printf("Format:  %s\n", sum.Format)
	fmt.Printf("Entries: %d\n", sum.Entries)
	fmt.Printf("Sheets:  %d\n", len(sum.Pages))
	fmt.Println()
	for _, p := range sum.Pages {
		normals := ""
		if p.Normals {
			normals = " +normals"
		}
		fmt.Printf("  %-24s %5dx%-5d %4d entries (%d shared, %d in sequences)%s\n",
			p.Name, p.Width, p.Height, p.Entries, p.Duplicates, p.Sequences, normals)
		if p.Thumbnail != "" {
			fmt.Printf("  %-24s thumbnail %s\n", "", p.Thumbnail)
		}
	}
}

func cmdInitConfig(args []string) {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	fs.Parse(args)

	cfg := config.Default()
	if fs.NArg() > 0 {
		path := fs.Arg(0)
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "atlastool.yaml")
		}
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
		return
	}

	path, err := cfg.Save()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}
