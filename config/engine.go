package config

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssinjs/engine"
	"cssinjs/style"
	"cssinjs/style/lint"
	"cssinjs/style/transform"
)

// BuildTransformers builds transformer pipeline in configured order.
func (conf *EngineConfig) BuildTransformers() ([]style.Transformer, error) {
	var (
		out  []style.Transformer
		errs error
	)
	for _, name := range conf.Transformers {
		kind, err := ParseTransformerName(string(name))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		switch kind {
		case TransformerNameLogical:
			out = append(out, transform.LegacyLogicalProperties{})
		case TransformerNamePx2rem:
			out = append(out, &transform.Px2Rem{
				RootValue:  conf.Px2Rem.RootValue,
				Precision:  conf.Px2Rem.Precision,
				MediaQuery: conf.Px2Rem.MediaQuery,
			})
		}
	}
	return out, errs
}

// BuildLinters returns configured linters, nil selects engine defaults.
func (conf *EngineConfig) BuildLinters() ([]style.Linter, error) {
	var (
		out  []style.Linter
		errs error
	)
	for _, name := range conf.Linters {
		l, err := lint.ByName(name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, l)
	}
	return out, errs
}

// Options converts configuration into engine context options. Bad entries
// are reported and skipped, options for everything else are still returned.
func (conf *EngineConfig) Options(log *zap.Logger) ([]engine.Option, error) {
	var errs error

	hp, err := style.ParseHashPriority(conf.HashPriority)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	transformers, err := conf.BuildTransformers()
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	linters, err := conf.BuildLinters()
	if err != nil {
		errs = multierr.Append(errs, err)
	}

	opts := []engine.Option{
		engine.WithLogger(log),
		engine.WithHashPriority(hp),
		engine.WithAutoClear(conf.AutoClear),
		engine.WithLayer(conf.Layer),
		engine.WithDev(conf.Dev),
		engine.WithTokenThreshold(conf.TokenThreshold),
		engine.WithSSRInline(conf.SSRInline),
		engine.WithContainer(conf.Container),
		engine.WithTransformers(transformers...),
		engine.WithLinters(linters...),
	}
	if errs != nil {
		return opts, fmt.Errorf("engine configuration: %w", errs)
	}
	return opts, nil
}

// Options converts configuration into extraction options.
func (conf *ExtractConfig) Options() engine.ExtractOptions {
	return engine.ExtractOptions{
		Plain: conf.Plain,
		Types: append([]string(nil), conf.Types...),
		Once:  conf.Once,
	}
}
