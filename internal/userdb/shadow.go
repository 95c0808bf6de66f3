package userdb

import "os"

type ShadowFile struct {
	entries []ShadowEntry
}

// shadowFieldCount is the full field count of a shadow(5) line; shorter
// lines are padded with empty fields, since everything past the hash is
// optional in practice.
const shadowFieldCount = 9

func LoadShadow(path string) (*ShadowFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f ShadowFile
	for _, fields := range databaseLines(string(b)) {
		if len(fields) < 2 {
			continue
		}
		for len(fields) < shadowFieldCount {
			fields = append(fields, "")
		}
		f.entries = append(f.entries, ShadowEntry{
			Name:       fields[0],
			Hash:       fields[1],
			LastChange: fields[2],
			Min:        fields[3],
			Max:        fields[4],
			Warn:       fields[5],
			Inactive:   fields[6],
			Expire:     fields[7],
			Reserved:   fields[8],
		})
	}
	return &f, nil
}

func (f *ShadowFile) Find(name string) *ShadowEntry {
	for i := range f.entries {
		if f.entries[i].Name == name {
			return &f.entries[i]
		}
	}
	return nil
}
