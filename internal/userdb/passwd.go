// Package userdb implements read-only parsing of the system user database
// files (/etc/passwd, /etc/shadow). Paths are always injected by the caller
// so tests can substitute fixtures; nothing here ever writes these files.
package userdb

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type PasswdFile struct {
	entries []PasswdEntry
}

// LoadPasswd reads a passwd(5) file. Comment, blank and malformed lines are
// skipped; this is a read-only view, there is nothing to preserve for a
// rewrite. A line with a non-numeric UID or GID is an error rather than a
// skip, because misreading an ID field is how the wrong account gets
// resolved.
func LoadPasswd(path string) (*PasswdFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f PasswdFile
	for _, fields := range databaseLines(string(b)) {
		if len(fields) < 7 {
			continue
		}
		uid, err := fieldInt(fields[2], "passwd.uid")
		if err != nil {
			return nil, err
		}
		gid, err := fieldInt(fields[3], "passwd.gid")
		if err != nil {
			return nil, err
		}
		f.entries = append(f.entries, PasswdEntry{
			Name:   fields[0],
			Passwd: fields[1],
			UID:    uid,
			GID:    gid,
			Gecos:  fields[4],
			Home:   fields[5],
			Shell:  fields[6],
		})
	}
	return &f, nil
}

func (f *PasswdFile) Find(name string) *PasswdEntry {
	for i := range f.entries {
		if f.entries[i].Name == name {
			return &f.entries[i]
		}
	}
	return nil
}

func (f *PasswdFile) FindUID(uid int) *PasswdEntry {
	for i := range f.entries {
		if f.entries[i].UID == uid {
			return &f.entries[i]
		}
	}
	return nil
}

// databaseLines splits file content into colon-separated field lists,
// dropping blank lines and # comments. Trailing empty fields are kept.
func databaseLines(content string) [][]string {
	var out [][]string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		out = append(out, strings.Split(line, ":"))
	}
	return out
}

func fieldInt(field, ctx string) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("invalid int %q in %s: %w", field, ctx, err)
	}
	return n, nil
}
