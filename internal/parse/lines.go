package parse

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// ReadLines returns the non-empty lines of a file in order. Lines of any
// length are kept. A trailing carriage return is stripped from each line.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	var lines []string
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if line != "" {
			lines = append(lines, line)
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// LastLine returns the last non-empty line of a file, or "" if there is none.
func LastLine(path string) (string, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	return lines[len(lines)-1], nil
}
