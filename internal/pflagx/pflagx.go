// Package pflagx implements extensions to pflag.
package pflagx

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

type FlagSet pflag.FlagSet

func FlagSetExt(fs *pflag.FlagSet) *FlagSet {
	return (*FlagSet)(fs)
}

func (fs *FlagSet) FlagSet() *pflag.FlagSet {
	return (*pflag.FlagSet)(fs)
}

func LevelP(name, shorthand string, value slog.Level, usage string) *slog.LevelVar {
	return FlagSetExt(pflag.CommandLine).LevelP(name, shorthand, value, usage)
}

func (fs *FlagSet) LevelP(name, shorthand string, value slog.Level, usage string) *slog.LevelVar {
	level := new(slog.LevelVar)
	def := new(slog.LevelVar)
	def.Set(value)
	fs.FlagSet().TextVarP(level, name, shorthand, def, usage)
	return level
}

// Bytes is a byte count which accepts sizes like "64KiB" or "1.5MB".
type Bytes int

var _ pflag.Value = (*Bytes)(nil)

func (b *Bytes) String() string {
	return humanize.IBytes(uint64(*b))
}

func (b *Bytes) Set(s string) error {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return err
	}
	if n > math.MaxInt {
		return fmt.Errorf("%s is too large", s)
	}
	*b = Bytes(n)
	return nil
}

func (b *Bytes) Type() string {
	return "bytes"
}

func BytesP(name, shorthand string, value int, usage string) *Bytes {
	return FlagSetExt(pflag.CommandLine).BytesP(name, shorthand, value, usage)
}

func (fs *FlagSet) BytesP(name, shorthand string, value int, usage string) *Bytes {
	b := Bytes(value)
	fs.FlagSet().VarP(&b, name, shorthand, usage)
	return &b
}

func ParseEnv(prefix string) {
	FlagSetExt(pflag.CommandLine).ParseEnv(prefix)
}

// ParseEnv sets flags from environment variables named prefix followed by
// the flag name in upper case with dashes as underscores. It exits on an
// invalid value, like Parse does.
func (fs *FlagSet) ParseEnv(prefix string) {
	for _, env := range os.Environ() {
		if k, v, ok := strings.Cut(env, "="); ok {
			if s, ok := strings.CutPrefix(k, prefix); ok {
				n := strings.Map(func(r rune) rune {
					switch r {
					case '_':
						return '-'
					}
					return unicode.ToLower(r)
				}, s)
				f := fs.FlagSet().Lookup(n)
				if f == nil {
					fmt.Fprintf(fs.FlagSet().Output(), "env %s: unknown flag --%s\n", k, n)
					continue
				}
				if err := fs.FlagSet().Set(n, v); err != nil {
					fmt.Fprintf(fs.FlagSet().Output(), "env %s: flag --%s: invalid argument: %v\n", k, n, err)
					os.Exit(2)
				}
			}
		}
	}
}
