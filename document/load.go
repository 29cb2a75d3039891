package document

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssinjs/archive"
)

// Extensions of files recognized as style documents.
var Extensions = []string{".yaml", ".yml"}

func isDocument(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// Load reads style documents from src which is one of:
//
//	path to a document file
//	path to a directory - every document under it, recursively
//	path to a zip archive - every document inside
//	path to a zip archive followed by path inside it - documents under that path
//
// Documents which fail to parse are reported together, documents parsed
// successfully are returned regardless.
func Load(ctx context.Context, src string, log *zap.Logger) ([]*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exist - probably path in archive
			continue
		}

		switch {
		case fi.IsDir():
			if len(tail) != 0 {
				return nil, fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			return loadDir(ctx, head, log)
		case !fi.Mode().IsRegular():
			return nil, fmt.Errorf("unexpected path mode for (%s)", head)
		}

		isArchive, err := archive.IsArchive(head)
		if err != nil {
			return nil, fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			inner := strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			return loadArchive(ctx, head, inner, log)
		}
		if len(tail) != 0 {
			return nil, fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		data, err := os.ReadFile(head)
		if err != nil {
			return nil, err
		}
		d, err := Parse(head, data)
		if err != nil {
			return nil, err
		}
		return []*Document{d}, nil
	}
	return nil, fmt.Errorf("input source was not found (%s)", src)
}

func loadDir(ctx context.Context, dir string, log *zap.Logger) ([]*Document, error) {
	var (
		docs []*Document
		errs error
	)
	err := filepath.WalkDir(dir, func(path string, de fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !de.Type().IsRegular() || !isDocument(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			return nil
		}
		d, err := Parse(path, data)
		if err != nil {
			errs = multierr.Append(errs, err)
			return nil
		}
		docs = append(docs, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 && errs == nil {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return docs, errs
}

func loadArchive(ctx context.Context, name, inner string, log *zap.Logger) ([]*Document, error) {
	var (
		docs []*Document
		errs error
	)
	err := archive.Walk(name, inner, Extensions, func(entry string, data []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		d, err := Parse(name+":"+entry, data)
		if err != nil {
			errs = multierr.Append(errs, err)
			return nil
		}
		docs = append(docs, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to process archive: %w", err)
	}
	if len(docs) == 0 && errs == nil {
		log.Debug("Nothing to process", zap.String("archive", name), zap.String("path", inner))
	}
	return docs, errs
}
