package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/bpmcore"
	"github.com/hupe1980/bpmcore/businessdata"
	"github.com/hupe1980/bpmcore/contractdata"
	"github.com/hupe1980/bpmcore/expression"
	"github.com/hupe1980/bpmcore/external"
	"github.com/hupe1980/bpmcore/internal/config"
	"github.com/hupe1980/bpmcore/internal/gormdb"
	"github.com/hupe1980/bpmcore/logging"
	"github.com/hupe1980/bpmcore/variable"
)

// newRuntime wires a Runtime from configuration. The returned cleanup
// closes every connection that was opened.
func newRuntime(ctx context.Context, c *config.Config, logger logging.Logger) (*bpmcore.Runtime, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("runtime.close.failed", "error", err)
			}
		}
	}

	var storeOpts []func(o *bpmcore.Options)

	if c.UsesDatabase() {
		db, err := gormdb.Open(c.Storage.Driver, c.Storage.DSN, func(o *gormdb.Options) {
			o.LogLevel = c.Storage.LogLevel
			o.SlowThreshold = c.SlowThreshold()
		})
		if err != nil {
			return nil, cleanup, err
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, sqlDB.Close)
		}

		vars, err := variable.NewGormStore(db)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("variable store: %w", err)
		}
		repo, err := businessdata.NewGormRepository(db)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("business data repository: %w", err)
		}
		archive, err := contractdata.NewGormStore(db)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("contract data store: %w", err)
		}
		storeOpts = append(storeOpts, func(o *bpmcore.Options) {
			o.VariableStore = vars
			o.BusinessData = repo
			o.ContractDataStore = archive
		})
		logger.Debug("runtime.storage.opened", "driver", c.Storage.Driver)
	}

	if c.External.RedisAddr != "" {
		kv, err := external.DialRedis(ctx, c.External.RedisAddr, func(o *external.RedisOptions) {
			o.KeyPrefix = c.External.KeyPrefix
			o.TTL = c.ExternalTTL()
			o.Logger = logger
		})
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, kv.Close)
		storeOpts = append(storeOpts, func(o *bpmcore.Options) { o.ExternalStore = kv })
		logger.Debug("runtime.external.connected", "addr", c.External.RedisAddr)
	}

	rt := bpmcore.New(append([]func(o *bpmcore.Options){func(o *bpmcore.Options) {
		o.EngineConfig.MaxOperations = c.Engine.MaxOperations
		o.Evaluator = newEvaluator(c)
		o.ScriptPolicy = c.ScriptPolicy()
		o.RulePolicy = c.RulePolicy()
		o.KeepContractData = c.Evaluation.KeepContractData
		o.Logger = logger
	}}, storeOpts...)...)

	return rt, cleanup, nil
}

func newEvaluator(c *config.Config) *expression.Composite {
	return expression.NewComposite(func(o *expression.CompositeOptions) {
		o.Script = expression.NewScriptEvaluator(func(so *expression.ScriptOptions) {
			so.Imports = c.Evaluation.ScriptImports
		})
	})
}

// commandContext applies the global timeout to the command's context.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}
