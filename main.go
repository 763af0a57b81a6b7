package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/micropath/micropath/pkg/core"
	"github.com/micropath/micropath/pkg/integrator"
	"github.com/micropath/micropath/pkg/log"
	"github.com/micropath/micropath/pkg/renderer"
	"github.com/micropath/micropath/pkg/scene"
)

var logger = log.New("micropath")

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "micropath"
	app.Usage = "render scenes by ray tracing micropolygons"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a preset scene to a PNG",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "spp",
					Value: 16,
					Usage: "samples per pixel",
				},
				cli.StringFlag{
					Name:  "scene",
					Value: "demo",
					Usage: "scene preset (demo, motion)",
				},
				cli.StringFlag{
					Name:  "filter",
					Value: "mitchell",
					Usage: "reconstruction filter (mitchell, gaussian)",
				},
				cli.StringFlag{
					Name:  "config",
					Usage: "yaml file with render settings",
				},
				cli.StringFlag{
					Name:  "out",
					Value: "frame.png",
					Usage: "output PNG path",
				},
			},
			Action: renderFrame,
		},
	}
	return app
}

func renderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg := core.DefaultConfig()
	if path := ctx.String("config"); path != "" {
		var err error
		if cfg, err = core.LoadConfig(path); err != nil {
			return err
		}
	}
	core.SetConfig(cfg)

	sc, err := sceneForName(ctx.String("scene"))
	if err != nil {
		return err
	}
	filter, err := filterForName(ctx.String("filter"))
	if err != nil {
		return err
	}

	opts := renderer.Options{
		Width:           ctx.Int("width"),
		Height:          ctx.Int("height"),
		SamplesPerPixel: ctx.Int("spp"),
		Filter:          filter,
	}
	img, stats, err := renderer.New(sc).Render(opts)
	if err != nil {
		return err
	}

	out := ctx.String("out")
	if err := renderer.WritePNG(img, out); err != nil {
		return err
	}
	logger.Noticef("wrote %s", out)

	displayFrameStats(stats)
	return nil
}

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

func sceneForName(name string) (*scene.Scene, error) {
	switch name {
	case "demo":
		return scene.NewDemoScene(), nil
	case "motion":
		return scene.NewMotionScene(), nil
	default:
		return nil, errors.Errorf("unknown scene %q (have demo, motion)", name)
	}
}

func filterForName(name string) (integrator.Filter, error) {
	switch name {
	case "mitchell":
		return integrator.MitchellFilter{C: 0.5}, nil
	case "gaussian":
		return integrator.GaussianFilter{Width: 0.66}, nil
	default:
		return nil, errors.Errorf("unknown filter %q (have mitchell, gaussian)", name)
	}
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Counter", "Value"})
	table.Append([]string{"Rays traced", fmt.Sprintf("%d", stats.RaysTraced)})
	table.Append([]string{"Primitive tests", fmt.Sprintf("%d", stats.PrimitiveTests)})
	table.Append([]string{"Cache misses", fmt.Sprintf("%d", stats.CacheMisses)})
	table.Append([]string{"Splits", fmt.Sprintf("%d", stats.Splits)})
	table.Append([]string{"Micropolygons", fmt.Sprintf("%d", stats.Micropolys)})
	table.Append([]string{"Grid cache bytes", fmt.Sprintf("%d", stats.CacheBytes)})
	table.SetFooter([]string{"Render time", fmt.Sprintf("%s", stats.RenderTime)})
	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
