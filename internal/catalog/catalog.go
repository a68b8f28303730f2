package catalog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/google/renameio/v2"

	"tapedeck/internal/logging"
	"tapedeck/internal/profile"
	"tapedeck/internal/recording"
	"tapedeck/internal/recurrence"
)

// ErrFutureSchema reports a catalog written by a newer build than this one.
var ErrFutureSchema = errors.New("catalog schema version newer than supported")

const openRetryDelay = 250 * time.Millisecond

// Catalog persists the recording repository as a versioned XML file.
type Catalog struct {
	path     string
	registry *profile.Registry
	logger   *slog.Logger
}

func New(path string, registry *profile.Registry, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Catalog{
		path:     path,
		registry: registry,
		logger:   logging.WithComponent(logger, "catalog"),
	}
}

// Path returns the catalog file location.
func (c *Catalog) Path() string {
	return c.path
}

// Restore loads the catalog file into repo. A missing file is not an error:
// an empty catalog is written and the repository stays empty. Records that
// cannot be mapped or inserted are skipped with a logged error so one bad
// record never takes the rest of the catalog down. The returned flag is true
// when the file used an older schema and should be rewritten by the caller.
func (c *Catalog) Restore(repo *recording.Repository) (bool, error) {
	data, err := c.readFile()
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Info("catalog file absent, creating empty catalog", logging.String("path", c.path))
		if err := c.writeDocument(&document{Version: SchemaVersion}); err != nil {
			return false, err
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read catalog %s: %w", c.path, err)
	}

	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("parse catalog %s: %w", c.path, err)
	}
	if doc.Version > SchemaVersion {
		return false, fmt.Errorf("catalog %s version %d: %w", c.path, doc.Version, ErrFutureSchema)
	}
	needsResave := doc.Version < SchemaVersion
	if needsResave {
		c.logger.Info("catalog uses older schema, will rewrite after load",
			logging.Int("found", doc.Version),
			logging.Int("current", SchemaVersion))
	}

	for i, rec := range doc.Records {
		if err := c.restoreRecord(repo, rec); err != nil {
			c.logger.Error("skipping unreadable catalog record",
				logging.Int("index", i),
				logging.String("title", rec.Title),
				logging.Error(err))
		}
	}
	return needsResave, nil
}

// Save writes the repository state back to disk atomically. Recurrence
// groups collapse to one master record per series.
func (c *Catalog) Save(repo *recording.Repository) error {
	return c.writeDocument(documentFromEntries(repo.ListAll()))
}

func (c *Catalog) restoreRecord(repo *recording.Repository, rec record) error {
	entry, err := entryFromRecord(rec)
	if err != nil {
		return err
	}
	entry.Profiles = c.resolveProfiles(entry.Title, entry.Profiles)

	if !entry.IsRecurring {
		_, err := repo.Insert(entry)
		return err
	}

	occurrences, err := recurrence.Expand(entry)
	if err != nil {
		return err
	}
	for _, occ := range occurrences {
		if _, err := repo.Insert(occ); err != nil {
			c.logger.Warn("dropping series occurrence",
				logging.String("title", occ.Title),
				logging.Time("start", occ.Start),
				logging.Error(err))
		}
	}
	return nil
}

// resolveProfiles rewrites an empty or partially unknown profile list to the
// configured default so every restored entry stays transcodable.
func (c *Catalog) resolveProfiles(title string, names []string) []string {
	fallback := c.registry.DefaultName()
	if len(names) == 0 {
		c.logger.Warn("record has no profiles, using default",
			logging.String("title", title),
			logging.Profile(fallback))
		return []string{fallback}
	}
	resolved := make([]string, 0, len(names))
	for _, name := range names {
		if !c.registry.Exists(name) {
			c.logger.Warn("record references unknown profile, using default",
				logging.String("title", title),
				logging.Profile(name))
			name = fallback
		}
		if !slices.Contains(resolved, name) {
			resolved = append(resolved, name)
		}
	}
	return resolved
}

// readFile retries a failed open once. Transient failures right after boot
// (slow automounts mostly) resolve within the delay; anything that survives
// the retry is reported to the caller.
func (c *Catalog) readFile() ([]byte, error) {
	data, err := os.ReadFile(c.path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return data, err
	}
	c.logger.Warn("catalog open failed, retrying", logging.Error(err))
	time.Sleep(openRetryDelay)
	return os.ReadFile(c.path)
}

func (c *Catalog) writeDocument(doc *document) error {
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	payload := append([]byte(xml.Header), data...)
	payload = append(payload, '\n')
	if err := renameio.WriteFile(c.path, payload, 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", c.path, err)
	}
	return nil
}
