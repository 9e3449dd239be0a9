package dense

import (
	"bufio"
	"os"

	"github.com/cockroachdb/errors"
)

// writeIDMapping and readIDMapping persist the fund_id ordering that
// parallels the rows of the binary vector array, one id per line. Kept as
// plain text rather than binary since it is small and operators benefit
// from being able to diff/inspect it directly.
func writeIDMapping(path string, ids []string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create id mapping %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, id := range ids {
		if _, err := w.WriteString(id); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

func readIDMapping(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open id mapping %s", path)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			ids = append(ids, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
