// Package logsink writes component diagnostics to a size-rotated log file.
//
// The sink is off unless Config.Debug or Config.Force is set. Write never
// reports failures to its caller; problems opening or writing the file are sent
// to the fallback writer (stderr by default). lumberjack compresses in the
// background and discards its errors, so rotated files left uncompressed are
// reported the next time the sink opens.
package logsink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultFileName = "feedsink.log"
	DefaultMaxSize  = 5 // megabytes

	placeholderName = "index.html"
	timeLayout      = "[2006-01-02 15:04:05]"
)

// lineBreaks keeps every call on a single line
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

type Config struct {
	Dir      string
	FileName string
	Debug    bool
	Force    bool
	MaxSize  int // megabytes
	Fallback io.Writer
}

func (c Config) Enabled() bool {
	return c.Debug || c.Force
}

type Sink struct {
	cfg      Config
	fallback zapcore.WriteSyncer

	once   sync.Once
	logger *zap.Logger
	file   *lumberjack.Logger
}

func New(cfg Config) *Sink {
	if cfg.FileName == "" {
		cfg.FileName = DefaultFileName
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}

	fallback := cfg.Fallback
	if fallback == nil {
		fallback = os.Stderr
	}

	return &Sink{
		cfg:      cfg,
		fallback: zapcore.Lock(zapcore.AddSync(fallback)),
	}
}

// Nop returns a sink that discards everything.
func Nop() *Sink {
	return New(Config{})
}

func (s *Sink) Enabled() bool {
	return s != nil && s.cfg.Enabled()
}

func (s *Sink) Path() string {
	return filepath.Join(s.cfg.Dir, s.cfg.FileName)
}

func (s *Sink) Write(component, message string) {
	if !s.Enabled() {
		return
	}

	s.once.Do(s.open)
	if s.logger == nil {
		return
	}

	s.logger.Named(lineBreaks.Replace(component)).Info(lineBreaks.Replace(message))
}

func (s *Sink) Writef(component, format string, args ...any) {
	if !s.Enabled() {
		return
	}
	s.Write(component, fmt.Sprintf(format, args...))
}

// Close flushes and closes the active log file.
func (s *Sink) Close() {
	if s == nil {
		return
	}
	// Wait for a concurrent first Write to finish opening
	s.once.Do(func() {})
	if s.logger == nil {
		return
	}
	_ = s.logger.Sync()
	if err := s.file.Close(); err != nil {
		s.fallbackf("close log file: %v", err)
	}
}

func (s *Sink) open() {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		s.fallbackf("create log directory %s: %v", s.cfg.Dir, err)
		return
	}

	placeholder := filepath.Join(s.cfg.Dir, placeholderName)
	if _, err := os.Stat(placeholder); os.IsNotExist(err) {
		if err := os.WriteFile(placeholder, nil, 0o644); err != nil {
			s.fallbackf("seed %s: %v", placeholder, err)
		}
	}

	// lumberjack creates new files with mode 0600; an existing file keeps its
	// mode, so tighten it here.
	if _, err := os.Stat(s.Path()); err == nil {
		if err := os.Chmod(s.Path(), 0o600); err != nil {
			s.fallbackf("chmod %s: %v", s.Path(), err)
		}
	}

	s.reportUncompressed()

	s.file = &lumberjack.Logger{
		Filename: s.Path(),
		MaxSize:  s.cfg.MaxSize,
		Compress: true,
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:          "T",
		NameKey:          "N",
		MessageKey:       "M",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeName:       encodeComponent,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(s.file)),
		zapcore.DebugLevel,
	)

	s.logger = zap.New(core, zap.ErrorOutput(s.fallback))
}

// reportUncompressed flags rotated files a previous process failed to gzip;
// lumberjack drops compression errors.
func (s *Sink) reportUncompressed() {
	ext := filepath.Ext(s.cfg.FileName)
	prefix := strings.TrimSuffix(s.cfg.FileName, ext)

	leftovers, err := filepath.Glob(filepath.Join(s.cfg.Dir, prefix+"-*"+ext))
	if err != nil {
		return
	}
	for _, path := range leftovers {
		s.fallbackf("rotated log %s was not compressed", path)
	}
}

func (s *Sink) fallbackf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.fallback, "logsink: "+format+"\n", args...)
}

func encodeComponent(name string, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + name + "]")
}
