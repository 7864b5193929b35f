package driver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"twaddle/interpreter-go/pkg/lookup"
)

// DictionaryExt is the extension of dictionary files.
const DictionaryExt = ".dic"

// maxParallelLoads bounds how many dictionary files are parsed at once.
const maxParallelLoads = 8

// ParseDictionary reads one dictionary in .dic format:
//
//	#name noun
//	#forms singular plural
//	#class add animal
//	> cat/cats
//	#class remove animal
//	> box/boxes
//
// Both header lines must appear before any entry. Entries whose value count
// does not match the forms are skipped.
func ParseDictionary(r io.Reader, source string, logger *zap.Logger) (*lookup.Dictionary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		name  string
		forms []string
		dict  *lookup.Dictionary
	)
	classes := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if dict == nil {
			fields := strings.Fields(line)
			switch {
			case len(fields) == 0:
			case fields[0] == "#name" && name == "" && len(fields) > 1:
				name = fields[1]
			case (fields[0] == "#forms" || fields[0] == "#subs") && forms == nil && len(fields) > 1:
				forms = fields[1:]
			}
			if name != "" && forms != nil {
				dict = lookup.NewDictionary(name, forms)
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "#class add"):
			if fields := strings.Fields(line); len(fields) > 2 {
				classes[fields[len(fields)-1]] = struct{}{}
			}
		case strings.HasPrefix(line, "#class remove"):
			if fields := strings.Fields(line); len(fields) > 2 {
				delete(classes, fields[len(fields)-1])
			}
		case strings.HasPrefix(line, ">"):
			values := strings.Split(strings.TrimSpace(strings.TrimPrefix(line, ">")), "/")
			for idx := range values {
				values[idx] = strings.TrimSpace(values[idx])
			}
			if err := dict.Add(values, sortedKeys(classes)); err != nil {
				logger.Debug("skipping dictionary entry",
					zap.String("file", source),
					zap.Int("line", lineNo),
					zap.Error(err))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dictionary: read %s: %w", source, err)
	}
	if dict == nil {
		return nil, fmt.Errorf("dictionary: %s is missing its #name or #forms header", source)
	}
	return dict, nil
}

// LoadFile parses a single .dic file.
func LoadFile(path string, logger *zap.Logger) (*lookup.Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: open %s: %w", path, err)
	}
	defer file.Close()
	return ParseDictionary(file, path, logger)
}

// LoadDirs discovers every .dic file under dirs and parses them
// concurrently. Dictionaries are returned in path order; when two files
// declare the same name the later path wins.
func LoadDirs(ctx context.Context, dirs []string, logger *zap.Logger) ([]*lookup.Dictionary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var paths []string
	for _, dir := range dirs {
		found, err := dictionaryFiles(dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}

	loaded := make([]*lookup.Dictionary, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelLoads)
	for idx, path := range paths {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			dict, err := LoadFile(path, logger)
			if err != nil {
				return err
			}
			loaded[idx] = dict
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	byName := make(map[string]int, len(loaded))
	out := make([]*lookup.Dictionary, 0, len(loaded))
	for idx, dict := range loaded {
		if prev, ok := byName[dict.Name]; ok {
			logger.Warn("duplicate dictionary name, later file wins",
				zap.String("dictionary", dict.Name),
				zap.String("file", paths[idx]))
			out[prev] = dict
			continue
		}
		byName[dict.Name] = len(out)
		out = append(out, dict)
	}
	logger.Debug("dictionaries loaded", zap.Int("files", len(paths)), zap.Int("dictionaries", len(out)))
	return out, nil
}

// LoadDir is LoadDirs for a single directory.
func LoadDir(ctx context.Context, dir string, logger *zap.Logger) ([]*lookup.Dictionary, error) {
	return LoadDirs(ctx, []string{dir}, logger)
}

func dictionaryFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), DictionaryExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dictionary: scan %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
