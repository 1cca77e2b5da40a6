package patch

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/saint0x/issol/pkg/forge"
	"github.com/saint0x/issol/pkg/ignore"
	"github.com/saint0x/issol/pkg/log"
)

// ErrNoPatch is returned when a completion names no files.
var ErrNoPatch = errors.New("no file changes found in the generated code")

// Change is a file whose proposed content differs from the base branch.
type Change struct {
	Path     string
	Content  string // cleaned content to write
	Original string
	Existed  bool
	Diff     string
	Stats    Stats
}

// Result is the outcome of comparing a Set with the base branch.
type Result struct {
	Changes    []Change
	Unchanged  []string
	Ignored    []string
	// Unreadable lists files that exist on base but whose content could
	// not be fetched. They are left untouched.
	Unreadable []string
}

// HasChanges reports whether any file differs.
func (r *Result) HasChanges() bool {
	return len(r.Changes) > 0
}

// Reconciler compares proposed files with their current content.
type Reconciler struct {
	reader  forge.FileReader
	cleaner Cleaner
	rules   *ignore.Rules
	logger  *log.Logger
}

// NewReconciler creates a Reconciler. Nil arguments fall back to
// CodeLineCleaner, empty rules and a discarding logger.
func NewReconciler(reader forge.FileReader, cleaner Cleaner, rules *ignore.Rules, logger *log.Logger) *Reconciler {
	if cleaner == nil {
		cleaner = CodeLineCleaner{}
	}
	if rules == nil {
		rules = ignore.New()
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Reconciler{reader: reader, cleaner: cleaner, rules: rules, logger: logger}
}

// Reconcile cleans every file in set and compares it with the same path on
// base. A path missing on base counts as empty. Files equal after trimming
// surrounding whitespace are unchanged. Ignored paths and files whose
// current content cannot be fetched are dropped.
func (r *Reconciler) Reconcile(ctx context.Context, set Set, base string) (*Result, error) {
	if len(set) == 0 {
		return nil, errors.WithHint(ErrNoPatch, "The generated code must start each file with '# File: <path>'.")
	}

	res := &Result{}
	for _, f := range set {
		if r.rules.IsIgnored(f.Path) {
			r.logger.Warning("Skipping ignored path %s", f.Path)
			res.Ignored = append(res.Ignored, f.Path)
			continue
		}

		content := r.cleaner.Clean(f.Content)
		if content != "" {
			content += "\n"
		}

		original, existed, err := r.current(ctx, f.Path, base)
		if errors.Is(err, forge.ErrUnreadable) {
			r.logger.Warning("Skipping %s: %v", f.Path, err)
			res.Unreadable = append(res.Unreadable, f.Path)
			continue
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(content) == strings.TrimSpace(original) {
			r.logger.Info("No changes detected for %s", f.Path)
			res.Unchanged = append(res.Unchanged, f.Path)
			continue
		}

		diff, err := UnifiedDiff(f.Path, original, content)
		if err != nil {
			return nil, errors.Wrapf(err, "diffing %s", f.Path)
		}
		change := Change{
			Path:     f.Path,
			Content:  content,
			Original: original,
			Existed:  existed,
			Diff:     diff,
			Stats:    LineStats(original, content),
		}
		r.logger.Diff("%s (%s)", f.Path, change.Stats)
		r.logger.Block("Diff for "+f.Path, diff)
		res.Changes = append(res.Changes, change)
	}
	return res, nil
}

func (r *Reconciler) current(ctx context.Context, path, base string) (string, bool, error) {
	file, err := r.reader.File(ctx, path, base)
	if err != nil {
		if errors.Is(err, forge.ErrNotFound) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "reading %s on %s", path, base)
	}
	return file.Content, true, nil
}
