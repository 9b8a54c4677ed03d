package file

import (
	"bufio"
	"os"
	"strings"
)

// ReadList reads a list file, one entry per line, for batch runs over many
// inputs. Blank lines and lines starting with '#' are skipped; order is
// preserved.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &SourceNotFoundError{Path: path}
		}
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
