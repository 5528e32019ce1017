package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/erpc/rpccheck/common"
	"github.com/erpc/rpccheck/nested"
	"github.com/erpc/rpccheck/schema"
	"github.com/erpc/rpccheck/softassert"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

func newCheckCommand(fs afero.Fs) *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Validate a single JSON or YAML document against the schema of a method",
		ArgsUsage: "<method> <file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "key",
				Usage: "Only use the part of the schema found under this key",
			},
			&cli.BoolFlag{
				Name:  "result",
				Usage: "Validate the result member of a JSON-RPC response instead of the whole document",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runCheck(fs, cmd)
		},
	}
}

func runCheck(fs afero.Fs, cmd *cli.Command) error {
	if cmd.NArg() != 2 {
		return common.NewErrInvalidConfig("check expects <method> <file>")
	}
	method, file := cmd.Args().Get(0), cmd.Args().Get(1)

	cfg, err := loadConfig(fs, cmd, cmd.String("config"), false)
	if err != nil {
		return err
	}

	data, err := readDocument(fs, file)
	if err != nil {
		return err
	}
	if cmd.Bool("result") {
		result, ok := nested.Lookup(data, "result")
		if !ok {
			return common.NewErrInvalidDocument("json-rpc response", fmt.Errorf("%s has no result member", file))
		}
		data = result
	}

	out := cmd.Root().Writer
	palette := paletteFor(cfg.Color)
	ledger := softassert.New(
		softassert.WithLogger(&log.Logger),
		softassert.WithOutput(out),
		softassert.WithPalette(palette),
	)
	checker := schema.NewChecker(&log.Logger, schema.NewStore(fs, cfg.SchemasDir),
		schema.WithLedger(ledger),
		schema.WithOutput(out),
		schema.WithPalette(palette),
	)
	return ledger.Scope(func(*softassert.Ledger) error {
		checker.ValidateTypeBySchemeAt(softassert.Location{File: file, Function: method}, data, method, cmd.String("key"))
		return nil
	})
}

func readDocument(fs afero.Fs, file string) (any, error) {
	raw, err := afero.ReadFile(fs, file)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", file, err)
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return nested.DecodeYAML(raw)
	}
	return nested.Decode(raw)
}

func newSchemasCommand(fs afero.Fs) *cli.Command {
	return &cli.Command{
		Name:      "schemas",
		Usage:     "List the methods that have a schema document",
		ArgsUsage: "[method filter]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(fs, cmd, cmd.String("config"), false)
			if err != nil {
				return err
			}
			match, err := common.CompileMethodFilter(cmd.Args().First())
			if err != nil {
				return common.NewErrInvalidConfig(err.Error())
			}
			methods, err := schema.NewStore(fs, cfg.SchemasDir).Methods()
			if err != nil {
				return err
			}
			for _, m := range methods {
				if !match(m) {
					continue
				}
				fmt.Fprintln(cmd.Root().Writer, m)
			}
			return nil
		},
	}
}
