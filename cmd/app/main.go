package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli"

	"github.com/1F47E/go-photobooth/internal/camera"
	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/core"
	"github.com/1F47E/go-photobooth/internal/filter"
	"github.com/1F47E/go-photobooth/internal/logger"
	"github.com/1F47E/go-photobooth/internal/strip"
)

var app = cli.NewApp()
var log = logger.Log

var ctx context.Context

var (
	flagDriver = cli.StringFlag{Name: "driver", Usage: "camera driver: " + strings.Join(camera.Drivers(), ", ")}
	flagFacing = cli.StringFlag{Name: "facing", Value: string(camera.FacingFront), Usage: "camera to start with: front or rear"}
	flagFilter = cli.StringFlag{Name: "filter", Usage: "starting filter, see the filters command"}
	flagLayout = cli.StringFlag{Name: "layout", Usage: "strip layout: classic or large"}
	flagMirror = cli.StringFlag{Name: "mirror", Usage: "mirror stills: front-only, always or never"}
	flagOut    = cli.StringFlag{Name: "out, o", Usage: "strip output file"}
)

func init() {
	app.Name = "photobooth"
	app.Usage = "A terminal photo booth"
	app.UsageText = "photobooth [--config file] command [options] [args]"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Usage: "yaml config file"},
	}
	app.Commands = []cli.Command{
		{
			Name:    "booth",
			Aliases: []string{"b"},
			Usage:   "Run the interactive booth",
			Flags:   []cli.Flag{flagDriver, flagFacing, flagFilter, flagLayout, flagMirror, flagOut},
			Action: func(c *cli.Context) error {
				cr, facing, err := newCore(c)
				if err != nil {
					return err
				}
				return cr.Booth(facing, c.String("out"))
			},
		},
		{
			Name:    "snap",
			Aliases: []string{"s"},
			Usage:   "Take three photos without the UI and save the strip",
			Flags:   []cli.Flag{flagDriver, flagFacing, flagFilter, flagLayout, flagMirror, flagOut},
			Action: func(c *cli.Context) error {
				cr, facing, err := newCore(c)
				if err != nil {
					return err
				}
				out, err := cr.Snap(facing, c.String("out"))
				if err != nil {
					return err
				}
				log.Infof("Strip saved to %s", out)
				return nil
			},
		},
		{
			Name:      "compose",
			Aliases:   []string{"c"},
			Usage:     "Compose a strip from three image files",
			ArgsUsage: "top middle bottom",
			Flags:     []cli.Flag{flagLayout, flagOut},
			Action: func(c *cli.Context) error {
				files, err := getFiles(c)
				if err != nil {
					return err
				}
				cr, _, err := newCore(c)
				if err != nil {
					return err
				}
				out := c.String("out")
				if out == "" {
					out = cr.Config().Strip.Output
				}
				_, err = cr.Compose(files, out)
				return err
			},
		},
		{
			Name:      "test",
			Aliases:   []string{"t"},
			Usage:     "Compose twice from the same files and compare the strips",
			ArgsUsage: "top middle bottom",
			Flags:     []cli.Flag{flagLayout},
			Action: func(c *cli.Context) error {
				files, err := getFiles(c)
				if err != nil {
					return err
				}
				cr, _, err := newCore(c)
				if err != nil {
					return err
				}
				same, err := cr.Compare(files)
				if err != nil {
					return fmt.Errorf("Error comparing strips: %v", err)
				}
				if !same {
					return fmt.Errorf("Strips are different")
				}
				log.Info("Strips are the same")
				return nil
			},
		},
		{
			Name:    "filters",
			Aliases: []string{"f"},
			Usage:   "List the filters",
			Action: func(c *cli.Context) error {
				for _, f := range filter.Catalog() {
					fmt.Printf("%-10s %-10s %s\n", f.Name, f.Label, f.Expr)
				}
				return nil
			},
		},
		{
			Name:      "theme",
			Aliases:   []string{"th"},
			Usage:     "Show or set the booth theme",
			ArgsUsage: "[name]",
			Action: func(c *cli.Context) error {
				cr, _, err := newCore(c)
				if err != nil {
					return err
				}
				theme, err := cr.Theme(c.Args().Get(0))
				if err != nil {
					return err
				}
				fmt.Println(theme)
				return nil
			},
		},
	}
}

// newCore loads the config file and applies the command flags on top.
func newCore(c *cli.Context) (*core.Core, camera.Facing, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, "", err
	}
	if v := c.String("driver"); v != "" {
		cfg.Camera.Driver = v
	}
	if v := c.String("filter"); v != "" {
		if _, err := filter.Lookup(v); err != nil {
			return nil, "", err
		}
		cfg.Filter.Default = v
	}
	if v := c.String("layout"); v != "" {
		if _, err := strip.LayoutByName(v); err != nil {
			return nil, "", err
		}
		cfg.Strip.Layout = v
	}
	if v := c.String("mirror"); v != "" {
		cfg.Capture.Mirror = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	facing := camera.FacingFront
	if v := c.String("facing"); v != "" {
		if facing, err = camera.ParseFacing(v); err != nil {
			return nil, "", err
		}
	}
	return core.NewCore(ctx, cfg), facing, nil
}

func getFiles(c *cli.Context) ([]string, error) {
	files := []string(c.Args())
	if len(files) != config.StripPhotos {
		return nil, fmt.Errorf("%d image files are required, got %d", config.StripPhotos, len(files))
	}
	return files, nil
}

func main() {
	var cancel context.CancelFunc
	ctx, cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := app.Run(os.Args)
	if err != nil {
		cancel()
		log.Fatal(err)
	}
}
