package canonical

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/chi32/internal/debug"
	"github.com/standardbeagle/chi32/internal/strategy"
)

// Definition describes one canonical case to generate.
type Definition struct {
	Name     string `toml:"name"`
	Strategy string `toml:"strategy"`
	Seed     int64  `toml:"seed"`
	Phase    int64  `toml:"phase"`
	Length   int    `toml:"length"`
	File     string `toml:"file"`
}

type manifest struct {
	Definitions []Definition `toml:"definition"`
}

// DefaultDefinitions returns the three reference cases shipped with CHI32.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name:     "chi32_sequential",
			Strategy: "sequential",
			Seed:     42,
			Phase:    math.MaxInt32 - math.MaxInt16,
			Length:   math.MaxUint16,
			File:     "chi32_sequential.bin",
		},
		{
			Name:     "chi32_swapped",
			Strategy: "swapped",
			Seed:     -42,
			Phase:    math.MaxInt16,
			Length:   math.MaxUint16,
			File:     "chi32_swapped.bin",
		},
		{
			Name:     "chi32_feedback",
			Strategy: "feedback",
			Seed:     0,
			Phase:    0,
			Length:   math.MaxUint16,
			File:     "chi32_feedback.bin",
		},
	}
}

// LoadManifest reads definitions from a TOML manifest of [[definition]] tables.
func LoadManifest(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if len(m.Definitions) == 0 {
		return nil, fmt.Errorf("manifest %s defines no cases", path)
	}
	return m.Definitions, nil
}

// Case validates the definition and converts it to a metadata row.
func (d Definition) Case() (Case, error) {
	if d.Name == "" {
		return Case{}, fmt.Errorf("definition has no name")
	}
	if err := validateName(d.Name); err != nil {
		return Case{}, fmt.Errorf("definition %q: %w", d.Name, err)
	}
	kind, err := strategy.ParseName(d.Strategy)
	if err != nil {
		return Case{}, fmt.Errorf("definition %s: %w", d.Name, err)
	}
	if d.Length <= 0 || d.Length > math.MaxInt32 {
		return Case{}, fmt.Errorf("definition %s: length must be in 1..%d, got %d", d.Name, math.MaxInt32, d.Length)
	}

	file := d.File
	if file == "" {
		file = d.Name + ".bin"
	}
	if err := validateFile(file); err != nil {
		return Case{}, fmt.Errorf("definition %s: %w", d.Name, err)
	}
	return Case{Name: d.Name, Strategy: kind, Seed: d.Seed, Phase: d.Phase, Length: d.Length, File: file}, nil
}

// Generate writes one reference file per definition into outDir, then the
// metadata table named metaName. Reference files are written concurrently.
func Generate(ctx context.Context, defs []Definition, outDir, metaName string) ([]Case, error) {
	cases := make([]Case, len(defs))
	seen := make(map[string]string, len(defs))
	for i, d := range defs {
		c, err := d.Case()
		if err != nil {
			return nil, err
		}
		if other, ok := seen[c.File]; ok {
			return nil, fmt.Errorf("definitions %s and %s both write %s", other, c.Name, c.File)
		}
		seen[c.File] = c.Name
		cases[i] = c
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return writeReference(filepath.Join(outDir, c.File), c)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metaPath := filepath.Join(outDir, metaName)
	f, err := os.Create(metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}
	if err := WriteMeta(f, cases); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write metadata table: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	debug.LogCanonical("wrote %d cases to %s\n", len(cases), metaPath)
	return cases, nil
}

func writeReference(path string, c Case) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := bufio.NewWriterSize(f, 64*1024)
	src := c.NewSource()
	var buf [valueSize]byte
	for i := 0; i < c.Length; i++ {
		binary.LittleEndian.PutUint32(buf[:], src.Next())
		if _, err := w.Write(buf[:]); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	debug.LogCanonical("generated %s: %d values\n", path, c.Length)
	return f.Close()
}
