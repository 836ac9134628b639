package onnx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadLabels reads the class name table from path.
func LoadLabels(path string) (map[int]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLabels(f)
}

// ParseLabels accepts one class name per line, or "index: name" lines as
// exported in a training dataset's names section. Blank lines and lines
// starting with "#" are skipped.
func ParseLabels(r io.Reader) (map[int]string, error) {
	names := make(map[int]string)
	next := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if idx, name, ok := strings.Cut(line, ":"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(idx)); err == nil {
				names[n] = strings.Trim(strings.TrimSpace(name), `"'`)
				next = n + 1
				continue
			}
		}

		names[next] = line
		next++
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no labels found")
	}
	return names, nil
}
