package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	cfg "github.com/phonlab/tgpipe/config"
	"github.com/phonlab/tgpipe/orchestrator"
	"github.com/phonlab/tgpipe/textgrid"
)

type app struct {
	v          *viper.Viper
	configFile string
	conf       *cfg.Root
	log        *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: cfg.New()}

	root := &cobra.Command{
		Use:           "tgpipe",
		Short:         "Extract labeled interval tiers from TextGrid annotations and summarize them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default config/$CONFIG_ENV/config.yaml)")
	pf.String("log-level", "", "log level: debug|info|warn|error")
	pf.String("log-format", "", "log format: text|json")
	pf.String("tier", "", "target tier name (case-sensitive)")
	pf.String("mode", "", "label decomposition: none|keyvalue|single")
	cobra.CheckErr(a.v.BindPFlag("pipeline.log_level", pf.Lookup("log-level")))
	cobra.CheckErr(a.v.BindPFlag("pipeline.log_format", pf.Lookup("log-format")))
	cobra.CheckErr(a.v.BindPFlag("extract.tier", pf.Lookup("tier")))
	cobra.CheckErr(a.v.BindPFlag("extract.mode", pf.Lookup("mode")))

	root.AddCommand(newExtractCmd(a), newRunCmd(a), newConfigCmd(a))
	return root
}

func (a *app) load(stderr io.Writer) error {
	conf, err := cfg.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	log, err := newLogger(conf.Pipeline, stderr)
	if err != nil {
		return err
	}
	a.conf, a.log = conf, log
	return nil
}

func newLogger(p cfg.Pipeline, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)
	lvl, err := logrus.ParseLevel(p.LogLvl)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	switch strings.ToLower(p.LogFormat) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", p.LogFormat)
	}
	return log, nil
}

func newExtractCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract the target tier of one document to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dec, err := textgrid.NewDecoder(a.conf.Extract.Encodings...)
			if err != nil {
				return err
			}
			res, err := textgrid.ExtractFile(args[0], a.conf.Extract.Tier, dec, a.conf.Options())
			if err != nil {
				return err
			}
			if res.Status != textgrid.StatusOK {
				a.log.WithFields(logrus.Fields{"file": args[0], "tier": res.Tier, "status": res.Status}).Warn("no intervals")
			}
			return writeResult(cmd.OutOrStdout(), format, args[0], res)
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv|json|textgrid")
	return cmd
}

type jsonInterval struct {
	File   string             `json:"filename"`
	Seq    int                `json:"interval_sequence"`
	XMin   float64            `json:"xmin"`
	XMax   float64            `json:"xmax"`
	Text   *string            `json:"text"`
	Symbol string             `json:"symbol,omitempty"`
	Fields map[string]float64 `json:"fields,omitempty"`
}

func writeResult(w io.Writer, format, file string, res *textgrid.Result) error {
	switch format {
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"filename", "interval_sequence", "xmin", "xmax", "text", "symbol", "fields"}); err != nil {
			return err
		}
		for _, iv := range res.Intervals {
			row := []string{file, strconv.Itoa(iv.Seq), ftoa(iv.XMin), ftoa(iv.XMax), iv.Label.String(), iv.Symbol, fieldsCell(iv.Fields)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case "json":
		out := make([]jsonInterval, 0, len(res.Intervals))
		for _, iv := range res.Intervals {
			ji := jsonInterval{File: file, Seq: iv.Seq, XMin: iv.XMin, XMax: iv.XMax, Symbol: iv.Symbol, Fields: iv.Fields}
			if iv.Label.Valid {
				text := iv.Label.Text
				ji.Text = &text
			}
			out = append(out, ji)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "textgrid":
		return textgrid.Encode(w, res.Tier, res.Intervals)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func fieldsCell(fields map[string]float64) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+ftoa(fields[k]))
	}
	return strings.Join(parts, " ")
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [DIR]",
		Short: "Extract every matching document of a directory and write CSV, Excel and run.json outputs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.conf.Paths.Data
			if len(args) > 0 {
				dir = args[0]
			}
			p, err := orchestrator.NewPipeline(a.conf, a.log)
			if err != nil {
				return err
			}
			s, err := p.Run(cmd.Context(), dir)
			if err != nil {
				return err
			}
			for _, f := range s.Failures {
				a.log.WithFields(logrus.Fields{"file": f.File, "code": f.Code}).WithError(f.Err).Error("document not processed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files, %d intervals, %d skipped, %d failed\n",
				s.SessionDir, s.Files, s.Intervals, len(s.Skipped), len(s.Failures))
			return nil
		},
	}
	f := cmd.Flags()
	f.String("out", "", "outputs root directory")
	f.Int("workers", 0, "concurrent documents")
	f.StringSlice("group-by", nil, "statistics groupings: symbol and/or classification table names")
	f.String("pattern", "", "file name pattern (regexp)")
	cobra.CheckErr(a.v.BindPFlag("paths.outputs", f.Lookup("out")))
	cobra.CheckErr(a.v.BindPFlag("batch.workers", f.Lookup("workers")))
	cobra.CheckErr(a.v.BindPFlag("stats.group_by", f.Lookup("group-by")))
	cobra.CheckErr(a.v.BindPFlag("batch.pattern", f.Lookup("pattern")))
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.conf); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
