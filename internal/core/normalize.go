package core

import (
	"sort"
	"strings"
)

// NormalizeStats counts the rows the normalizer did not keep.
type NormalizeStats struct {
	Input      int `json:"input"`
	Incomplete int `json:"incomplete"` // missing area, sub area or field
	Superseded int `json:"superseded"` // replaced by a later row with the same key
	Output     int `json:"output"`
}

// Normalize trims, filters and deduplicates raw rows.
//
// A row whose trimmed area, sub area or field is empty is dropped. Rows are
// deduplicated by key and the last occurrence wins, so a later corrected row
// replaces an earlier one. Output is ordered by the input position of each
// surviving row.
func Normalize(raw []RawRecord) []NormalizedRecord {
	out, _ := NormalizeWithStats(raw)
	return out
}

// NormalizeWithStats is Normalize plus a count of dropped rows.
func NormalizeWithStats(raw []RawRecord) ([]NormalizedRecord, NormalizeStats) {
	stats := NormalizeStats{Input: len(raw)}

	type survivor struct {
		pos int
		rec NormalizedRecord
	}
	byKey := make(map[Key]survivor, len(raw))

	for i, r := range raw {
		key := Key{
			Area:    strings.TrimSpace(r.Area),
			SubArea: strings.TrimSpace(r.SubArea),
			Field:   strings.TrimSpace(r.Field),
		}
		if key.Area == "" || key.SubArea == "" || key.Field == "" {
			stats.Incomplete++
			continue
		}
		if _, seen := byKey[key]; seen {
			stats.Superseded++
		}
		byKey[key] = survivor{
			pos: i,
			rec: NormalizedRecord{
				Key:    key,
				Prompt: strings.TrimSpace(r.Prompt),
				Line:   r.Line,
			},
		}
	}

	survivors := make([]survivor, 0, len(byKey))
	for _, s := range byKey {
		survivors = append(survivors, s)
	}
	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].pos < survivors[j].pos
	})

	out := make([]NormalizedRecord, len(survivors))
	for i, s := range survivors {
		out[i] = s.rec
	}
	stats.Output = len(out)
	return out, stats
}
