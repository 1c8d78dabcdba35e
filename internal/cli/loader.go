package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/tfscope/internal/buffer"
	"github.com/roach88/tfscope/internal/compiler"
	"github.com/roach88/tfscope/internal/tf"
	"github.com/roach88/tfscope/internal/wire"
)

// SourceOptions are the flags shared by commands that build a frame tree
// from a static frame file and a stream of transform messages.
type SourceOptions struct {
	Input       string // message stream, "-" for stdin
	InputFormat string // json | cbor
	Static      string // frames.cue applied before the stream
	NominalRoot string
	MaxChain    int
}

func bindSourceFlags(cmd *cobra.Command, s *SourceOptions) {
	cmd.Flags().StringVarP(&s.Input, "input", "i", "", `transform message stream ("-" for stdin)`)
	cmd.Flags().StringVar(&s.InputFormat, "input-format", string(wire.FormatJSON), "input encoding (json|cbor)")
	cmd.Flags().StringVar(&s.Static, "static", "", "static frame definitions (.cue)")
	cmd.Flags().StringVar(&s.NominalRoot, "nominal-root", buffer.DefaultNominalRoot, "fallback root when the tree has zero or several roots")
	cmd.Flags().IntVar(&s.MaxChain, "max-chain", 0, "cap on parent hops per lookup (0 = number of frames)")
}

// LoadError represents an input that could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.describe())
}

// describe is the message prefixed with the CUE position, if any.
func (e *LoadError) describe() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// bufferOptions translates the flags into buffer options.
func (s *SourceOptions) bufferOptions(logger *slog.Logger) []buffer.Option {
	return []buffer.Option{
		buffer.WithNominalRoot(s.NominalRoot),
		buffer.WithLogger(logger),
		buffer.WithMaxChainLength(s.MaxChain),
	}
}

// loadStatic compiles the --static file, or returns nil when unset.
func loadStatic(path string) ([]tf.Record, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("static frame file not found: %s", path)}
	}
	records, err := compiler.CompileFile(path)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return records, nil
}

// openInput opens the --input stream. The returned closer is a no-op for
// stdin.
func openInput(s *SourceOptions, stdin io.Reader) (*wire.Reader, io.Closer, error) {
	format, err := wire.ParseFormat(s.InputFormat)
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}

	var (
		r      io.Reader
		closer io.Closer = io.NopCloser(stdin)
	)
	if s.Input == "-" {
		r = stdin
	} else {
		f, err := os.Open(s.Input)
		if err != nil {
			return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("input not found: %s", s.Input)}
		}
		r, closer = f, f
	}

	reader, err := wire.NewReader(r, format)
	if err != nil {
		closer.Close()
		return nil, nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	return reader, closer, nil
}

// loadBuffer builds a buffer from the static file and the whole input
// stream, one batch per message.
func loadBuffer(ctx context.Context, s *SourceOptions, stdin io.Reader, logger *slog.Logger) (*buffer.Buffer, error) {
	if s.Input == "" && s.Static == "" {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "nothing to load: set --input and/or --static"}
	}

	static, err := loadStatic(s.Static)
	if err != nil {
		return nil, err
	}

	buf := buffer.New(s.bufferOptions(logger)...)
	if static != nil {
		res := buf.ApplyBatch(ctx, static)
		logger.Debug("static frames applied", "file", s.Static, "applied", res.Applied)
	}

	if s.Input == "" {
		return buf, nil
	}
	reader, closer, err := openInput(s, stdin)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	for {
		records, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return buf, nil
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: err.Error()}
		}
		buf.ApplyBatch(ctx, records)
	}
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeStatic,
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeStatic, Message: err.Error()}
}

// failLoad reports a load error and returns exit code 2.
func failLoad(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return f.Fail(ExitCommandError, loadErr.Code, loadErr.describe(), nil)
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, "load failed", err)
}
