package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"regexp"
	"strings"
)

// Regex for valid partition (subreddit) names.
var partitionNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

// LoadPartitions reads a one-column CSV of partition targets (header row
// skipped). Invalid names are dropped, not reported: target lists are
// operator-maintained and fail-soft.
func LoadPartitions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(stripBOM(f))

	var partitions []string
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		line++
		if line == 1 {
			continue // Skip header
		}

		name := strings.TrimSpace(record[0])
		if !partitionNameRegex.MatchString(name) {
			continue
		}
		partitions = append(partitions, name)
	}
	return partitions, nil
}

// LoadKeywords reads a one-column CSV of extra promotional keywords
// (header row skipped), lowercased for the detector.
func LoadKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(stripBOM(f))
	var kws []string
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if line > 0 && len(rec) > 0 {
			kw := strings.ToLower(strings.TrimSpace(rec[0]))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		line++
	}
	return kws, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rn, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rn != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
