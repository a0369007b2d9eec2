package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/franckalain/ecoscan/internal/backend"
	"github.com/franckalain/ecoscan/internal/ml"
	"github.com/franckalain/ecoscan/internal/pipeline"
	"github.com/franckalain/ecoscan/internal/upload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// swapped in tests
var clipboardWriteAll = clipboard.WriteAll

type analyzeOptions struct {
	backendURL string
	modelType  string
	seed       int64
	asJSON     bool
	share      bool
	copy       bool
}

func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze IMAGE",
		Short: "Analyze a photo and report its carbon footprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("backend") {
				opts.backendURL = v.GetString("backend.url")
			}
			if !cmd.Flags().Changed("model") {
				opts.modelType = v.GetString("ml.type")
			}
			return runAnalyze(cmd, v, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.backendURL, "backend", "", "vision backend URL (default: analyze in process)")
	cmd.Flags().StringVar(&opts.modelType, "model", "local", "in-process model: local, gemini or google")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "seed for the local detector (0 uses the clock)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.share, "share", false, "print the share text")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "copy the share text to the clipboard")
	return cmd
}

func runAnalyze(cmd *cobra.Command, v *viper.Viper, path string, opts analyzeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	file := upload.File{Name: filepath.Base(path), ContentType: detectContentType(path, data), Data: data}

	b, err := newBackend(ctx, v, opts)
	if err != nil {
		return err
	}

	views := make(chan pipeline.View, 16)
	p := pipeline.New(b,
		pipeline.WithLogger(logrus.WithField("component", "pipeline")),
		pipeline.OnChange(func(view pipeline.View) { views <- view }),
	)
	defer p.Close()

	if err := p.Select(file); err != nil {
		return err
	}
	view, err := waitFor(ctx, views, pipeline.StateReady)
	if err != nil {
		return err
	}
	if view.Notice != "" {
		return errors.New(view.Notice)
	}

	if err := p.Analyze(ctx); err != nil {
		return err
	}
	view, err = waitFor(ctx, views, pipeline.StateSucceeded, pipeline.StateFailed)
	if err != nil {
		return err
	}
	if view.State == pipeline.StateFailed {
		return errors.New(view.Error)
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view.Result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, renderReport(*view.Result))
	}

	if opts.share || opts.copy {
		text, err := p.ShareText()
		if err != nil {
			return err
		}
		if opts.share {
			fmt.Fprintln(out, text)
		}
		if opts.copy {
			if err := clipboardWriteAll(text); err != nil {
				return fmt.Errorf("copying share text: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("Share text copied to clipboard"))
		}
	}
	return nil
}

func newBackend(ctx context.Context, v *viper.Viper, opts analyzeOptions) (pipeline.Backend, error) {
	if opts.backendURL != "" {
		return backend.NewClient(opts.backendURL, backend.WithTimeout(v.GetDuration("backend.timeout"))), nil
	}

	var cfg ml.Config
	if err := v.UnmarshalKey("ml", &cfg); err != nil {
		return nil, fmt.Errorf("parsing ml config: %w", err)
	}
	cfg.Type = opts.modelType
	if opts.seed != 0 {
		cfg.Local.Seed = opts.seed
	}

	model, err := ml.NewModel(cfg)
	if err != nil {
		return nil, err
	}
	if err := model.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}
	return pipeline.ModelBackend(model), nil
}

// waitFor returns the first view in one of the wanted states. A view carrying a
// notice also ends the wait, since the selection was dropped.
func waitFor(ctx context.Context, views <-chan pipeline.View, states ...pipeline.State) (pipeline.View, error) {
	timeout := time.NewTimer(5 * time.Minute)
	defer timeout.Stop()
	for {
		select {
		case view := <-views:
			if view.Notice != "" {
				return view, nil
			}
			for _, s := range states {
				if view.State == s {
					return view, nil
				}
			}
		case <-ctx.Done():
			return pipeline.View{}, ctx.Err()
		case <-timeout.C:
			return pipeline.View{}, errors.New("timed out waiting for analysis")
		}
	}
}

func detectContentType(path string, data []byte) string {
	if ct := http.DetectContentType(data); ct != "application/octet-stream" {
		return ct
	}
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
