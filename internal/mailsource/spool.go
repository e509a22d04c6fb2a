// Package mailsource provides mail source implementations for the
// processing pipeline. The spool source reads raw messages from a
// local directory tree, one subdirectory per label, which is how
// messages exported from the mailbox are dropped in by the fetch cron.
package mailsource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/homemetrics/backend/internal/processor"
)

const processedDirName = "processed"

// SpoolSource implements processor.MailSource over a directory layout
// of <root>/<label>/*.eml. Marking a message processed moves it to
// <root>/<label>/processed/.
type SpoolSource struct {
	root string
	log  *slog.Logger
}

func NewSpoolSource(root string, log *slog.Logger) (*SpoolSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("spool directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("spool path %s is not a directory", root)
	}
	return &SpoolSource{root: root, log: log}, nil
}

// Search lists unprocessed message files under the label directory,
// oldest first. A missing label directory means no messages.
func (s *SpoolSource) Search(ctx context.Context, label string) ([]string, error) {
	dir := filepath.Join(s.root, label)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read spool dir %s: %w", dir, err)
	}

	type candidate struct {
		id      string
		modTime time.Time
	}
	var found []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".eml") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{
			id:      filepath.Join(label, entry.Name()),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].modTime.Before(found[j].modTime)
	})

	ids := make([]string, len(found))
	for i, c := range found {
		ids[i] = c.id
	}
	return ids, nil
}

// Fetch reads one spooled message. The message date is the file's
// modification time, which the fetch cron sets to the email date.
func (s *SpoolSource) Fetch(ctx context.Context, id string) (*processor.Message, error) {
	path, err := s.resolve(id)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message %s: %w", id, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat message %s: %w", id, err)
	}

	return &processor.Message{
		ID:   id,
		Date: info.ModTime().UTC(),
		Raw:  raw,
	}, nil
}

// MarkProcessed moves the message file into the label's processed
// subdirectory.
func (s *SpoolSource) MarkProcessed(ctx context.Context, id string, label string) error {
	path, err := s.resolve(id)
	if err != nil {
		return err
	}

	destDir := filepath.Join(s.root, label, processedDirName)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create processed dir: %w", err)
	}

	dest := filepath.Join(destDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("move message %s: %w", id, err)
	}
	s.log.Debug("moved message to processed", "message_id", id)
	return nil
}

// resolve maps a message id back to a file path and rejects ids that
// escape the spool root.
func (s *SpoolSource) resolve(id string) (string, error) {
	path := filepath.Join(s.root, filepath.Clean("/"+id))
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid message id %q", id)
	}
	return path, nil
}
