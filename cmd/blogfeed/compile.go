package main

import (
	"fmt"

	"blogfeed/internal/metrics"
)

type CompileCmd struct {
	Watch bool `help:"Keep running; recompile on the configured interval and on content changes"`
}

func (c *CompileCmd) Run(a *app) error {
	db, err := a.connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	pub, closePub, err := a.publisher()
	if err != nil {
		return err
	}
	defer closePub()

	compiler := a.compiler(db, pub, metrics.NoopRecorder{})

	if c.Watch {
		return runGroup(a.ctx, a.compileRunners(compiler, true)...)
	}

	stats, err := compiler.Compile(a.ctx)
	if err != nil {
		return err
	}
	if stats.Errors > 0 {
		return fmt.Errorf("compile finished with %d errors", stats.Errors)
	}
	return nil
}
