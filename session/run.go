package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"inlinebar/css"
	"inlinebar/dom"
	"inlinebar/state"
)

// TraceStdout is trace destination which means standard output.
const TraceStdout = "-"

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("session")

	src, script := cmd.Args().Get(0), cmd.Args().Get(1)
	if len(src) == 0 {
		return errors.New("no input document has been specified")
	}
	if len(script) == 0 {
		return errors.New("no session script has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	if script, err = filepath.Abs(script); err != nil {
		return err
	}

	dst := cmd.Args().Get(2)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 3 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[3:]))
	}

	if env.Cfg.Document.StylesheetPath != "" {
		data, err := os.ReadFile(env.Cfg.Document.StylesheetPath)
		if err != nil {
			return fmt.Errorf("unable to read style css from %q: %w", env.Cfg.Document.StylesheetPath, err)
		}
		env.Stylesheet = data
	}

	env.Overwrite, env.TraceDest = cmd.Bool("overwrite"), cmd.String("trace")
	if cmd.Bool("embed") {
		env.Cfg.Document.EmbedToolbar = true
	}

	log.Info("Session starting", zap.String("source", src), zap.String("script", script), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Session completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	out, err := process(ctx, src, script, dst, env)
	if err != nil {
		return err
	}
	log.Info("Document written", zap.String("file", out))
	return nil
}

// process replays script against the document independently of CLI
// framework and returns name of the written document.
func process(ctx context.Context, src, scriptPath, dst string, env *state.LocalEnv) (out string, err error) {
	log := env.Log

	var extra [][]byte
	if len(env.Stylesheet) > 0 {
		extra = append(extra, env.Stylesheet)
	}
	styles := css.NewDefaults(log, extra...)
	if env.Rpt != nil {
		env.Rpt.StoreData("defaults.css", []byte(styles.Stylesheet().String()))
	}

	doc, err := loadDocument(src, styles, log)
	if err != nil {
		return "", err
	}
	env.Rpt.Store(fmt.Sprintf("source/%s", filepath.Base(src)), src)

	script, err := loadScript(scriptPath)
	if err != nil {
		return "", err
	}
	env.Rpt.Store(fmt.Sprintf("script/%s", filepath.Base(scriptPath)), scriptPath)

	runner, err := NewRunner(doc, env.Cfg.Document.EditableSelector, ToolbarOptions(&env.Cfg.Toolbar), LayoutMetrics(&env.Cfg.Layout), log)
	if err != nil {
		return "", err
	}
	defer func() {
		err = multierr.Append(err, runner.Close())
	}()

	trace, err := runner.Run(ctx, script)
	if trace != nil {
		trace.Source = filepath.Base(src)
		if data, er := trace.Marshal(); er == nil {
			env.Rpt.StoreData("trace.yaml", data)
		}
	}
	if err != nil {
		return "", fmt.Errorf("unable to replay session: %w", err)
	}

	if env.Cfg.Document.EmbedToolbar {
		if err := doc.EmbedToolbar(runner.Controller()); err != nil {
			return "", fmt.Errorf("unable to embed toolbar: %w", err)
		}
	}

	out = buildOutputPath(Values{
		Title:    doc.Title(),
		Source:   sourceName(src),
		Script:   sourceName(scriptPath),
		Session:  trace.ID,
		Editable: len(runner.Controller().Editable()),
	}, src, dst, env)
	if err := writeDocument(doc, out, env.Overwrite); err != nil {
		return "", err
	}
	env.Rpt.Store(fmt.Sprintf("result/%s", filepath.Base(out)), out)

	if err := writeTrace(trace, env.TraceDest); err != nil {
		return out, err
	}
	return out, nil
}

func loadDocument(path string, styles *css.Defaults, log *zap.Logger) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open document: %w", err)
	}
	defer f.Close()

	doc, err := dom.Load(f, styles, log)
	if err != nil {
		return nil, fmt.Errorf("unable to load '%s': %w", path, err)
	}
	return doc, nil
}

func loadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open script: %w", err)
	}
	defer f.Close()

	s, err := LoadScript(f)
	if err != nil {
		return nil, fmt.Errorf("unable to load '%s': %w", path, err)
	}
	return s, nil
}

func writeDocument(doc *dom.Document, out string, overwrite bool) (err error) {
	if _, err := os.Stat(out); err == nil && !overwrite {
		return fmt.Errorf("output file already exists: %s", out)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if _, err := doc.WriteTo(f); err != nil {
		return fmt.Errorf("unable to write document: %w", err)
	}
	return nil
}

func writeTrace(trace *Trace, dest string) (err error) {
	if dest == "" {
		return nil
	}
	data, err := trace.Marshal()
	if err != nil {
		return err
	}

	if dest == TraceStdout {
		_, err = os.Stdout.Write(data)
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("unable to create trace file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("unable to write trace: %w", err)
	}
	return nil
}
