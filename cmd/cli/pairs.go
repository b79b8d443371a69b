package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/himanishpuri/fpstore/pkg/models"
)

// readPairs parses one "hash,offset" pair per line. The hash is 40 hex
// characters; the separator may be a comma or whitespace. Blank lines and
// lines starting with # are skipped.
func readPairs(r io.Reader) ([]models.HashOffset, error) {
	var pairs []models.HashOffset
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want \"hash,offset\", got %q", line, text)
		}
		hash, err := models.ParseHash(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		offset, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid offset %q: %w", line, fields[1], err)
		}
		pairs = append(pairs, models.HashOffset{Hash: hash, Offset: uint32(offset)})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// readPairsFile reads pairs from path, or from stdin when path is "-".
func readPairsFile(path string, stdin io.Reader) ([]models.HashOffset, error) {
	if path == "-" {
		return readPairs(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pairs, err := readPairs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pairs, nil
}
