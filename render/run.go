// Package render implements program commands: style documents are rendered
// through a style context and the result is extracted, inspected or
// reconciled with existing page markup.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssinjs/document"
	"cssinjs/engine"
	"cssinjs/state"
)

// load reads documents from src, documents which failed to parse are
// reported but do not stop processing as long as something is left.
func load(ctx context.Context, src string, log *zap.Logger) ([]*document.Document, error) {
	if len(src) == 0 {
		return nil, errors.New("no input source has been specified")
	}
	docs, err := document.Load(ctx, src, log)
	if err != nil {
		if len(docs) == 0 {
			return nil, err
		}
		log.Warn("Some documents were skipped", zap.Error(err))
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no style documents found (%s)", src)
	}
	return docs, nil
}

// renderAll renders every document into sc and returns joined markup.
// Documents which fail to render are logged and skipped.
func renderAll(ctx context.Context, sc *engine.Context, docs []*document.Document, log *zap.Logger) (string, int, error) {
	var (
		sb       strings.Builder
		rendered int
	)
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return "", rendered, err
		}
		r, err := d.Render(sc)
		if err != nil {
			log.Error("Unable to render document", zap.String("document", d.Name), zap.Error(err))
			continue
		}
		rendered++
		sb.WriteString(r.Markup)
	}
	if rendered == 0 {
		return "", 0, errors.New("no document was rendered")
	}
	return sb.String(), rendered, nil
}

// output writes data to file dst or stdout when dst is empty.
func output(dst string, data string) (err error) {
	var out io.Writer = os.Stdout
	if len(dst) > 0 {
		f, err := os.Create(dst)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", dst, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		out = f
	}
	if _, err := io.WriteString(out, data); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}

// reportName returns name of debug report entry for command output produced
// from src.
func reportName(command, src, ext string) string {
	base := slug.Make(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)))
	if len(base) == 0 {
		base = "result"
	}
	return path.Join(command, base+ext)
}

func destName(dst string) string {
	if len(dst) == 0 {
		return "STDOUT"
	}
	return dst
}

// Extract renders style documents on the server side and writes extracted
// styles, optionally as a complete page with rendered markup.
func Extract(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("extract")

	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	opts := env.Cfg.Extract.Options()
	if cmd.IsSet("plain") {
		opts.Plain = cmd.Bool("plain")
	}
	if cmd.IsSet("types") {
		opts.Types = cmd.StringSlice("types")
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", destName(dst)))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	out, err := extract(ctx, env, src, opts, cmd.Bool("page"), log)
	if err != nil {
		return err
	}
	env.Rpt.StoreData(reportName("extract", src, ".html"), []byte(out))
	return output(dst, out)
}

func extract(ctx context.Context, env *state.LocalEnv, src string, opts engine.ExtractOptions, page bool, log *zap.Logger) (string, error) {
	docs, err := load(ctx, src, log)
	if err != nil {
		return "", err
	}
	sc, err := env.NewStyleContext(engine.WithSide(engine.Server))
	if err != nil {
		return "", err
	}
	markup, count, err := renderAll(ctx, sc, docs, log)
	if err != nil {
		return "", err
	}

	styles := engine.Extract(sc, opts)
	log.Debug("Documents rendered", zap.Int("documents", count), zap.Int("entries", sc.Cache().Len()))
	if !page {
		return styles, nil
	}
	if opts.Plain {
		styles = "<style>" + styles + "</style>"
	}
	return "<!DOCTYPE html><html><head>" + styles + "</head><body>" + markup + "</body></html>", nil
}
