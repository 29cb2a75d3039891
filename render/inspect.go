package render

import (
	"context"
	"slices"
	"strconv"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssinjs/css"
	"cssinjs/engine"
	"cssinjs/hydrate"
	"cssinjs/state"
	"cssinjs/utils/debug"
)

// Inspect renders style documents and prints cache content and selectors
// of produced styles.
func Inspect(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inspect")

	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	out, err := inspect(ctx, env, src, log)
	if err != nil {
		return err
	}
	env.Rpt.StoreData(reportName("inspect", src, ".txt"), []byte(out))
	return output(dst, out)
}

func inspect(ctx context.Context, env *state.LocalEnv, src string, log *zap.Logger) (string, error) {
	docs, err := load(ctx, src, log)
	if err != nil {
		return "", err
	}
	sc, err := env.NewStyleContext(engine.WithSide(engine.Server))
	if err != nil {
		return "", err
	}
	_, count, err := renderAll(ctx, sc, docs, log)
	if err != nil {
		return "", err
	}

	c := sc.Cache()
	tw := debug.NewTreeWriter()
	tw.Line(0, "Documents: %d of %d", count, len(docs))
	tw.Line(0, "Cache entries: %d", c.Len())
	tw.Paths(1, c.Keys(), func(path []string) string {
		e, ok := c.Get(path)
		if !ok {
			return ""
		}
		return "refs=" + strconv.Itoa(e.Refs)
	})

	sheet := css.NewParser(log).Parse([]byte(engine.Extract(sc, engine.ExtractOptions{Plain: true})), src)
	selectors := slices.DeleteFunc(sheet.Selectors(), func(s string) bool {
		return s == "."+hydrate.AttrCachePath
	})
	slices.SortFunc(selectors, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case natural.Less(a, b):
			return -1
		}
		return 1
	})
	selectors = slices.Compact(selectors)
	tw.Line(0, "Selectors: %d", len(selectors))
	for _, s := range selectors {
		tw.Line(1, "%s", s)
	}
	return tw.String(), nil
}
