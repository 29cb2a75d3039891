package render

import (
	"context"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssinjs/engine"
	"cssinjs/sink"
	"cssinjs/state"
)

// Hydrate reads server rendered page, renders style documents on the client
// side against styles the page already has and writes resulting head styles.
func Hydrate(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("hydrate")

	page, src, dst := cmd.Args().Get(0), cmd.Args().Get(1), cmd.Args().Get(2)
	if cmd.Args().Len() > 3 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[3:]))
	}
	if len(page) == 0 {
		return fmt.Errorf("no page has been specified")
	}

	log.Info("Processing starting", zap.String("page", page), zap.String("source", src), zap.String("destination", destName(dst)))

	out, err := hydratePage(ctx, env, page, src, log)
	if err != nil {
		return err
	}
	env.Rpt.StoreData(reportName("hydrate", page, ".html"), []byte(out))
	return output(dst, out)
}

func hydratePage(ctx context.Context, env *state.LocalEnv, page, src string, log *zap.Logger) (string, error) {
	f, err := os.Open(page)
	if err != nil {
		return "", fmt.Errorf("unable to open page: %w", err)
	}
	defer f.Close()

	doc, err := sink.ParseHTML(f, log)
	if err != nil {
		return "", err
	}
	before := len(doc.Nodes(sink.Head))

	docs, err := load(ctx, src, log)
	if err != nil {
		return "", err
	}
	sc, err := env.NewStyleContext(engine.WithSide(engine.Client), engine.WithSink(doc))
	if err != nil {
		return "", err
	}
	if _, _, err := renderAll(ctx, sc, docs, log); err != nil {
		return "", err
	}

	stats := doc.Stats()
	log.Info("Page hydrated",
		zap.Int("styles", before),
		zap.Int("inserted", stats.Inserted),
		zap.Int("updated", stats.Updated),
		zap.Int("removed", stats.Removed))

	var sb strings.Builder
	if err := doc.Render(&sb, sink.Head); err != nil {
		return "", err
	}
	return sb.String(), nil
}
