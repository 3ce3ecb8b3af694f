// Package identity maps GitHub logins to Freelo user ids.
//
// The table is loaded once at startup and never mutated afterwards, so a
// Mapping can be shared freely between goroutines.
package identity

import (
	"bufio"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the mapping file is looked up when none is configured.
const DefaultPath = ".github/freelo.txt"

const profileBaseURL = "https://github.com/"

// Entry is one login → Freelo user id pair.
type Entry struct {
	Login  string
	UserID int64
}

// Mapping is an immutable login → Freelo user id table.
type Mapping struct {
	users map[string]Entry
}

// New builds a Mapping from a login → id map.
func New(users map[string]int64) Mapping {
	m := Mapping{users: make(map[string]Entry, len(users))}
	for login, id := range users {
		m.add(login, id)
	}
	return m
}

func (m Mapping) add(login string, id int64) {
	login = strings.TrimSpace(login)
	if login == "" {
		return
	}
	m.users[strings.ToLower(login)] = Entry{Login: login, UserID: id}
}

// Load reads the mapping file at path. A missing or unreadable file yields an
// empty Mapping; the problem is logged and never returned.
func Load(path string, logger *slog.Logger) Mapping {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = DefaultPath
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("identity mapping file not found, mentions fall back to profile links", "path", path)
		} else {
			logger.Warn("cannot open identity mapping file", "path", path, "error", err)
		}
		return New(nil)
	}
	defer f.Close()

	var m Mapping
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err = ParseYAML(f)
	default:
		m, err = ParseText(f, logger)
	}
	if err != nil {
		logger.Warn("malformed identity mapping file, ignoring it", "path", path, "error", err)
		return New(nil)
	}

	logger.Debug("identity mapping loaded", "path", path, "entries", m.Len())
	return m
}

// ParseText reads "login:id" lines. Blank lines and lines starting with '#'
// are ignored. Lines that do not parse are logged and skipped.
func ParseText(r io.Reader, logger *slog.Logger) (Mapping, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := New(nil)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		login, rawID, found := strings.Cut(line, ":")
		if !found {
			logger.Warn("skipping identity mapping line without separator", "line", lineNo)
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
		if err != nil || id <= 0 {
			logger.Warn("skipping identity mapping line with invalid user id", "line", lineNo, "value", rawID)
			continue
		}
		m.add(login, id)
	}
	if err := scanner.Err(); err != nil {
		return Mapping{}, fmt.Errorf("failed to read identity mapping: %w", err)
	}
	return m, nil
}

type yamlFile struct {
	Users map[string]int64 `yaml:"users"`
}

// ParseYAML reads a document of the form
//
//	users:
//	  alice: 42
func ParseYAML(r io.Reader) (Mapping, error) {
	var doc yamlFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return New(nil), nil
		}
		return Mapping{}, fmt.Errorf("failed to decode identity mapping: %w", err)
	}
	for login, id := range doc.Users {
		if id <= 0 {
			return Mapping{}, fmt.Errorf("invalid user id %d for %q", id, login)
		}
	}
	return New(doc.Users), nil
}

// RemoteUserID returns the Freelo user id mapped to login.
func (m Mapping) RemoteUserID(login string) (int64, bool) {
	e, ok := m.users[strings.ToLower(strings.TrimSpace(login))]
	return e.UserID, ok
}

// RemoteMention renders login as a Freelo mention when it is mapped, and as
// a link to the GitHub profile otherwise.
func (m Mapping) RemoteMention(login string) string {
	escaped := html.EscapeString(login)
	if id, ok := m.RemoteUserID(login); ok {
		return fmt.Sprintf(`<span data-freelo-mention="1" data-freelo-user-id="%d">@%s</span>`, id, escaped)
	}
	return fmt.Sprintf(`<a href="%s%s">@%s</a>`, profileBaseURL, escaped, escaped)
}

// Entries returns all pairs ordered by login.
func (m Mapping) Entries() []Entry {
	out := make([]Entry, 0, len(m.users))
	for _, e := range m.users {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Login) < strings.ToLower(out[j].Login)
	})
	return out
}

// Len returns the number of mapped logins.
func (m Mapping) Len() int {
	return len(m.users)
}
