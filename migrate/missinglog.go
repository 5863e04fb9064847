package migrate

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MissingLog is the plain-text list of source URLs whose destination had a missing ancestor, one
// per line.  A URL is written at most once.
type MissingLog struct {
	Path string

	mu   sync.Mutex
	seen map[string]bool
}

// OpenMissingLog loads whatever an earlier run left in path.  A missing file is fine.
func OpenMissingLog(path string) (*MissingLog, error) {
	l := &MissingLog{Path: path, seen: map[string]bool{}}

	entries, err := l.read()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		l.seen[e] = true
	}
	return l, nil
}

// Append records url unless it's already there.
func (l *MissingLog) Append(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen[url] {
		return nil
	}

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("migrate: couldn't open missing-ancestors log %s: %w", l.Path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, url); err != nil {
		return fmt.Errorf("migrate: couldn't append to %s: %w", l.Path, err)
	}
	l.seen[url] = true
	return nil
}

// Entries are the logged URLs in file order.
func (l *MissingLog) Entries() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

// Remove drops the given URLs and rewrites the file.
func (l *MissingLog) Remove(urls ...string) error {
	if len(urls) == 0 {
		return nil
	}
	drop := map[string]bool{}
	for _, u := range urls {
		drop[strings.TrimSpace(u)] = true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, e := range entries {
		if drop[e] {
			delete(l.seen, e)
			continue
		}
		b.WriteString(e)
		b.WriteString("\n")
	}

	tmp := filepath.Join(filepath.Dir(l.Path), "."+filepath.Base(l.Path)+".tmp")
	if err := os.WriteFile(tmp, []byte(b.String()), 0640); err != nil {
		return fmt.Errorf("migrate: couldn't rewrite %s: %w", l.Path, err)
	}
	if err := os.Rename(tmp, l.Path); err != nil {
		return fmt.Errorf("migrate: couldn't rewrite %s: %w", l.Path, err)
	}
	return nil
}

func (l *MissingLog) read() ([]string, error) {
	f, err := os.Open(l.Path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("migrate: couldn't open missing-ancestors log %s: %w", l.Path, err)
	}
	defer f.Close()

	entries := []string{}
	dupes := map[string]bool{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || dupes[line] {
			continue
		}
		dupes[line] = true
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("migrate: couldn't read %s: %w", l.Path, err)
	}
	return entries, nil
}
